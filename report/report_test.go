package report

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clockAt(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestRenderUnsetResult(t *testing.T) {
	tc := &TestCase{}
	tc.SetName("Login")
	tc.SetExpectedOutcome("Dashboard shown")
	assert.Equal(t, "<tr><td>Login</td><td>Dashboard shown</td><td></td><td></td><td></td><td></td></tr>", tc.Render())
}

func TestRenderResults(t *testing.T) {
	start := time.Date(2024, time.May, 6, 7, 8, 9, 0, time.UTC)
	tests := []struct {
		pass bool
		want string
	}{
		{true, "<tr><td>Search</td><td>Results</td><td>05/06/2024 07:08:09</td><td>05/06/2024 07:08:19</td><td>Results shown</td><td bgcolor=green>PASS</td></tr>"},
		{false, "<tr><td>Search</td><td>Results</td><td>05/06/2024 07:08:09</td><td>05/06/2024 07:08:19</td><td>Results shown</td><td bgcolor=red>FAIL</td></tr>"},
	}
	for _, test := range tests {
		tc := &TestCase{}
		tc.SetName("Search")
		tc.SetExpectedOutcome("Results")
		tc.SetStartTime(start)
		tc.SetEndTime(start.Add(10 * time.Second))
		tc.SetActualOutcome("Results shown")
		tc.SetResult(test.pass)
		assert.Equal(t, test.want, tc.String())
	}
}

func TestRenderEscapesText(t *testing.T) {
	tc := &TestCase{}
	tc.SetName("<script>")
	tc.SetActualOutcome("a & b")
	got := tc.Render()
	assert.Contains(t, got, "<td>&lt;script&gt;</td>")
	assert.Contains(t, got, "<td>a &amp; b</td>")
}

func TestSetResultLastCallWins(t *testing.T) {
	tc := NewTestCase("x", "y")
	tc.SetResult(false)
	tc.SetResult(true)
	assert.Equal(t, Pass, tc.Result())
	assert.False(t, tc.StartTime().IsZero())
}

func TestReportDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	created := time.Date(2023, time.November, 7, 14, 5, 9, 0, time.UTC)
	r, err := New(fs, "Report", WithClock(clockAt(created)))
	require.NoError(t, err)

	assert.Equal(t, "report2023-07-11-14-05-09.html", r.Name())
	assert.Equal(t, filepath.Join("Report", "report2023-07-11-14-05-09.html"), r.Path())
	assert.Equal(t, created, r.Created())

	results := []bool{true, false, true}
	for i, pass := range results {
		tc := &TestCase{}
		tc.SetName("case" + string(rune('A'+i)))
		tc.SetStartTime(created)
		tc.SetResult(pass)
		require.NoError(t, r.AddTestCase(tc))
		assert.Equal(t, created, tc.EndTime())
	}
	unset := &TestCase{}
	unset.SetName("pending")
	require.NoError(t, r.AddTestCase(unset))
	require.NoError(t, r.End())

	data, err := afero.ReadFile(fs, r.Path())
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, Header+"\n"), "document must start with the header")
	assert.True(t, strings.HasSuffix(text, Footer+"\n"), "document must end with the footer")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, "Automation Report", doc.Find("title").Text())

	// Three header rows precede the test rows.
	rows := doc.Find("table tr")
	require.Equal(t, 3+len(results)+1, rows.Length())

	var colors, names []string
	rows.Slice(3, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		names = append(names, cells.First().Text())
		color, _ := cells.Last().Attr("bgcolor")
		colors = append(colors, color)
	})
	assert.Equal(t, []string{"caseA", "caseB", "caseC", "pending"}, names)
	assert.Equal(t, []string{"green", "red", "green", ""}, colors)

	passed, failed, unsetCount := r.Counts()
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, unsetCount)
}

func TestReportEndOnce(t *testing.T) {
	fs := afero.NewMemMapFs()
	r, err := New(fs, "out")
	require.NoError(t, err)
	require.NoError(t, r.End())

	assert.ErrorIs(t, r.End(), ErrClosed)
	assert.ErrorIs(t, r.Add("<tr></tr>"), ErrClosed)
	assert.ErrorIs(t, r.AddTestCase(NewTestCase("late", "")), ErrClosed)

	data, err := afero.ReadFile(fs, r.Path())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Footer))
}

func TestReportWithoutEndIsReadable(t *testing.T) {
	fs := afero.NewMemMapFs()
	r, err := New(fs, "out")
	require.NoError(t, err)
	require.NoError(t, r.Add("<tr><td>raw</td></tr>"))

	data, err := afero.ReadFile(fs, r.Path())
	require.NoError(t, err)
	assert.Equal(t, Header+"\n<tr><td>raw</td></tr>\n", string(data))
}

func TestReportReadOnlyFs(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	_, err := New(fs, "out")
	assert.Error(t, err)
}
