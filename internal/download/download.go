// Package download fetches the WebDriver server binaries driverlib starts
// locally.
package download

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/blang/semver"
	"github.com/golang/glog"
	"github.com/google/go-github/v27/github"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

// File describes how to download a file from the Web.
type File struct {
	URL  string
	Name string
	// Hash is the hex digest of the file. It is not checked when empty.
	Hash     string
	HashType string // md5, sha1 or sha256 (the default)
	// Rename moves Rename[0] to Rename[1], both relative to the download
	// directory, after the archive is unpacked.
	Rename []string
}

// Path returns where the file is stored in directory.
func (f File) Path(directory string) string {
	if directory != "" {
		return filepath.Join(directory, f.Name)
	}
	return f.Name
}

func (f File) newHash() hash.Hash {
	switch strings.ToLower(f.HashType) {
	case "md5":
		return md5.New()
	case "sha1":
		return sha1.New()
	}
	return sha256.New()
}

const (
	// Bucket URL: https://console.cloud.google.com/storage/browser/chromium-browser-snapshots
	storageBktName       = "chromium-browser-snapshots"
	prefixLinux64        = "Linux_x64"
	lastChangeFile       = "Linux_x64/LAST_CHANGE"
	chromeDriverFilename = "chromedriver_linux64.zip"
)

// bucket is the part of a GCS bucket ChromeDriverFile reads.
type bucket interface {
	read(ctx context.Context, object string) ([]byte, error)
	attrs(ctx context.Context, object string) (*storage.ObjectAttrs, error)
}

type gcsBucket struct {
	h *storage.BucketHandle
}

func (b gcsBucket) read(ctx context.Context, object string) ([]byte, error) {
	r, err := b.h.Object(object).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (b gcsBucket) attrs(ctx context.Context, object string) (*storage.ObjectAttrs, error) {
	return b.h.Object(object).Attrs(ctx)
}

// ChromeDriverFile describes the ChromeDriver of a Chromium snapshot build.
// An empty build selects the latest snapshot.
func ChromeDriverFile(ctx context.Context, build string) (File, error) {
	client, err := storage.NewClient(ctx, option.WithHTTPClient(http.DefaultClient))
	if err != nil {
		return File{}, fmt.Errorf("cannot create a storage client for downloading chromedriver: %v", err)
	}
	defer client.Close()
	return chromeDriverFile(ctx, gcsBucket{client.Bucket(storageBktName)}, build)
}

func chromeDriverFile(ctx context.Context, bkt bucket, build string) (File, error) {
	gcsPath := fmt.Sprintf("gs://%s/", storageBktName)
	if build == "" {
		// The last change file holds the latest build directory name.
		data, err := bkt.read(ctx, lastChangeFile)
		if err != nil {
			return File{}, fmt.Errorf("cannot read from %s%s file: %v", gcsPath, lastChangeFile, err)
		}
		build = strings.TrimSpace(string(data))
	}

	pkg := path.Join(prefixLinux64, build, chromeDriverFilename)
	attrs, err := bkt.attrs(ctx, pkg)
	if err != nil {
		return File{}, fmt.Errorf("cannot get the chromedriver package %s%s attrs: %v", gcsPath, pkg, err)
	}
	return File{
		URL:      attrs.MediaLink,
		Name:     "chromedriver.zip",
		Hash:     hex.EncodeToString(attrs.MD5),
		HashType: "md5",
		Rename:   []string{"chromedriver_linux64/chromedriver", "chromedriver"},
	}, nil
}

var geckoAssetRE = regexp.MustCompile(`^geckodriver-.*linux64\.tar\.gz$`)

// GeckoDriverFile describes the linux64 geckodriver of the latest release on
// GitHub. It fails when that release is older than minVersion. A nil client
// talks to api.github.com.
func GeckoDriverFile(ctx context.Context, client *github.Client, minVersion string) (File, error) {
	if client == nil {
		client = github.NewClient(nil)
	}
	rel, _, err := client.Repositories.GetLatestRelease(ctx, "mozilla", "geckodriver")
	if err != nil {
		return File{}, err
	}

	if minVersion != "" {
		min, err := semver.ParseTolerant(minVersion)
		if err != nil {
			return File{}, fmt.Errorf("invalid minimum version %q: %v", minVersion, err)
		}
		got, err := semver.ParseTolerant(rel.GetTagName())
		if err != nil {
			return File{}, fmt.Errorf("release %q has no semantic version: %v", rel.GetTagName(), err)
		}
		if got.LT(min) {
			return File{}, fmt.Errorf("latest geckodriver %s is older than %s", got, min)
		}
	}

	for _, a := range rel.Assets {
		if !geckoAssetRE.MatchString(a.GetName()) {
			continue
		}
		u := a.GetBrowserDownloadURL()
		if u == "" {
			return File{}, fmt.Errorf("%s does not have a download URL", a.GetName())
		}
		return File{URL: u, Name: "geckodriver.tar.gz"}, nil
	}
	return File{}, fmt.Errorf("release %s of mozilla/geckodriver has no linux64 archive", rel.GetTagName())
}

// Download fetches file into directory unless a copy with the same hash is
// already there, then unpacks it and applies Rename.
func Download(ctx context.Context, file File, directory string) error {
	if directory != "" {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return fmt.Errorf("error creating %q: %v", directory, err)
		}
	}

	if file.Hash != "" && fileSameHash(file, directory) {
		glog.Infof("Skipping file %q which has already been downloaded.", file.Name)
	} else {
		glog.Infof("Downloading %q from %q", file.Name, file.URL)
		if err := downloadFile(ctx, file, directory); err != nil {
			os.Remove(file.Path(directory)) // Ignore error.
			return err
		}
	}

	if err := unpack(ctx, file, directory); err != nil {
		return err
	}

	if rename := file.Rename; len(rename) == 2 {
		from := filepath.Join(directory, rename[0])
		to := filepath.Join(directory, rename[1])
		glog.Infof("Renaming %q to %q", from, to)
		os.RemoveAll(to) // Ignore error.
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf("error renaming %q to %q: %v", from, to, err)
		}
	}
	return nil
}

// DownloadAll downloads files into directory in parallel.
func DownloadAll(ctx context.Context, directory string, files ...File) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := Download(ctx, file, directory); err != nil {
				return fmt.Errorf("error handling %s: %v", file.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func downloadFile(ctx context.Context, file File, directory string) (err error) {
	p := file.Path(directory)
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("error creating %q: %v", p, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("error closing %q: %v", p, closeErr)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		return fmt.Errorf("%s: %v", file.Name, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: error downloading %q: %v", file.Name, file.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: error downloading %q: %s", file.Name, file.URL, resp.Status)
	}

	if file.Hash == "" {
		if _, err := io.Copy(f, resp.Body); err != nil {
			return fmt.Errorf("%s: error downloading %q: %v", file.Name, file.URL, err)
		}
		return nil
	}
	h := file.newHash()
	if _, err := io.Copy(io.MultiWriter(f, h), resp.Body); err != nil {
		return fmt.Errorf("%s: error downloading %q: %v", file.Name, file.URL, err)
	}
	if sum := hex.EncodeToString(h.Sum(nil)); sum != file.Hash {
		return fmt.Errorf("%s: got hash %q, want %q", file.Name, sum, file.Hash)
	}
	return nil
}

func fileSameHash(file File, directory string) bool {
	f, err := os.Open(file.Path(directory))
	if err != nil {
		return false
	}
	defer f.Close()

	h := file.newHash()
	if _, err := io.Copy(h, f); err != nil {
		return false
	}
	sum := hex.EncodeToString(h.Sum(nil))
	if sum != file.Hash {
		glog.Warningf("File %q: got hash %q, expect hash %q", file.Name, sum, file.Hash)
		return false
	}
	return true
}

func unpack(ctx context.Context, file File, directory string) error {
	dir := "."
	if directory != "" {
		dir = directory
	}

	var args []string
	switch path.Ext(file.Name) {
	case ".zip":
		args = []string{"unzip", "-d", dir, "-o", file.Path(directory)}
	case ".gz":
		args = []string{"tar", "-xzf", file.Path(directory), "-C", dir}
	case ".bz2":
		args = []string{"tar", "-xjf", file.Path(directory), "-C", dir}
	default:
		return nil
	}

	glog.Infof("Unpacking %q", file.Path(directory))
	if out, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput(); err != nil {
		return fmt.Errorf("error unpacking %q: %v: %s", file.Name, err, out)
	}
	return nil
}
