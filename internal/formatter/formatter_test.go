package formatter

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
	th "github.com/desertthunder/flickx/internal/testing"
)

func sampleMovies() []models.MovieDetail {
	return []models.MovieDetail{
		{
			MovieSummary: models.MovieSummary{IMDbID: "tt0080339", Title: "Airplane!", Year: "1980", Poster: "N/A"},
			Genre:        "Comedy",
			Rating:       "7.7",
			Runtime:      "88 min",
			Plot:         "A man afraid to fly must ensure that a plane lands safely, after the pilots become sick.",
		},
		{
			MovieSummary: models.MovieSummary{IMDbID: "tt0071230", Title: "Blazing Saddles", Year: "1974"},
			Genre:        "Comedy, Western",
			StreamingLinks: []models.StreamingLink{
				{Name: "Netflix", URL: "https://www.netflix.com/search?q=Blazing+Saddles"},
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleMovies())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "IMDb ID,Title,Year,Genre,Rating,Runtime,Plot") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `tt0071230,Blazing Saddles,1974,"Comedy, Western"`) {
			t.Errorf("CSV missing quoted genre, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown("Comedy", sampleMovies(), map[string]string{"tt0080339": "posters/tt0080339.jpg"})
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Comedy",
			"**Movies**: 2",
			"## 1. Airplane! (1980)",
			"![Poster](posters/tt0080339.jpg)",
			"**Rating**: ⭐ 7.7",
			"- [Netflix](https://www.netflix.com/search?q=Blazing+Saddles)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q", want)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText("Search: airplane", sampleMovies())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Movies: 2") {
			t.Errorf("Text missing count")
		}
		if !strings.Contains(output, "1. Airplane! (1980) ⭐ 7.7 [tt0080339]") {
			t.Errorf("Text missing first movie line, got: %s", output)
		}
		if !strings.Contains(output, "\n   A man afraid to fly") {
			t.Errorf("expected indented plot line, got: %s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleMovies())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded []map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[0]["imdb_id"] != "tt0080339" {
			t.Errorf("unexpected JSON %s", data)
		}
	})
}

func TestDetail(t *testing.T) {
	d := &sampleMovies()[0]

	t.Run("Text", func(t *testing.T) {
		output := string(DetailToText(d))
		for _, want := range []string{"Director: N/A", "IMDB Rating: ⭐ 7.7", "Watch/Download:", "IMDb: https://www.imdb.com/title/tt0080339/"} {
			if !strings.Contains(output, want) {
				t.Errorf("detail text missing %q in %s", want, output)
			}
		}
	})

	t.Run("Markdown Skips Missing Poster", func(t *testing.T) {
		output := string(DetailToMarkdown(d))
		if strings.Contains(output, "![Poster]") {
			t.Error("expected no poster for N/A")
		}
		if !strings.Contains(output, "## Watch/Download") {
			t.Error("expected links section")
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", Text},
		{"TEXT", Text},
		{"md", Markdown},
		{"csv", CSV},
		{" json ", JSON},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseFormat("yaml"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}

func TestWriteMarkdownExport(t *testing.T) {
	t.Run("Downloads Posters", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "missing.jpg") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte("jpeg"))
		}))
		defer server.Close()

		movies := sampleMovies()
		movies[0].Poster = server.URL + "/airplane.jpg"
		movies[1].Poster = server.URL + "/missing.jpg"
		dir := filepath.Join(t.TempDir(), "comedy")

		result, err := WriteMarkdownExport("Comedy", movies, dir, true)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if result.Posters != 1 || len(result.Warnings) != 1 {
			t.Errorf("expected one poster and one warning, got %d and %v", result.Posters, result.Warnings)
		}

		th.AssertFileExists(t, filepath.Join(dir, "posters", "tt0080339.jpg"))
		readme := th.MustReadFile(t, filepath.Join(dir, "README.md"))
		if !strings.Contains(readme, "![Poster](posters/tt0080339.jpg)") {
			t.Errorf("README missing poster link: %s", readme)
		}
	})

	t.Run("Requires Directory", func(t *testing.T) {
		if _, err := WriteMarkdownExport("x", nil, "", false); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestWriteFile(t *testing.T) {
	var buf strings.Builder
	if err := WriteFile(&buf, "-", []byte("hi")); err != nil || buf.String() != "hi" {
		t.Errorf("expected stdout write, got %q, %v", buf.String(), err)
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WriteFile(&buf, path, []byte("a,b\n")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "a,b\n" {
		t.Errorf("unexpected file contents %q", data)
	}

	if err := WriteFile(&th.FWriter{}, "", []byte("x")); err == nil {
		t.Error("expected writer error")
	}
}
