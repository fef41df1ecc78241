package drivertest

import (
	"fmt"
	"net/http"
)

// Fixture ids and classes used by the integration suite.
const (
	HomeTitle    = "driverlib fixture"
	DelayedID    = "delayed"
	ResultsTitle = "driverlib fixture - results"
)

var homePage = `<html>
<head>
	<title>` + HomeTitle + `</title>
</head>
<body>
	<form action="/results">
		<input id="query" name="q" class="field" autofocus />
		<input id="submit" type="submit" class="button primary" />
	</form>
	<span id="greeting" class="note">Hello, driverlib</span>
	<span id="hidden" class="note" style="display:none">not shown</span>
	<div id="` + DelayedID + `" style="display:none">ready</div>
	<table>
		<tbody>
			<tr><td>1</td><td>a</td><td>b</td><td>c</td><td>d</td><td>first</td></tr>
			<tr><td>2</td><td>a</td><td>b</td><td>c</td><td>d</td><td>second</td></tr>
			<tr><td>3</td><td>a</td><td>b</td><td>c</td><td>d</td><td>third</td></tr>
		</tbody>
	</table>
	<script>
		setTimeout(function() {
			document.getElementById('` + DelayedID + `').style.display = 'block';
		}, 1000);
	</script>
</body>
</html>
`

var resultsPage = `<html>
<head>
	<title>` + ResultsTitle + `</title>
</head>
<body>
	<p id="answer">You searched for "%s".</p>
</body>
</html>
`

// Handler serves the fixture pages: "/" and "/results".
var Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		fmt.Fprint(w, homePage)
	case "/results":
		fmt.Fprintf(w, resultsPage, r.FormValue("q"))
	default:
		http.NotFound(w, r)
	}
})
