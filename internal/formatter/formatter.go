// package formatter renders movie lists and details as text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
)

// Format selects an output encoding.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	CSV      Format = "csv"
	JSON     Format = "json"
)

// Formats lists the accepted format names.
var Formats = []Format{Text, Markdown, CSV, JSON}

// ParseFormat maps a flag value to a [Format]. "md" is accepted for Markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Text, Markdown, CSV, JSON:
		return f, nil
	case "", "txt":
		return Text, nil
	case "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, markdown, csv or json)", shared.ErrInvalidFlag, s)
	}
}

// ExportMovies renders a titled movie list in format.
func ExportMovies(format Format, title string, movies []models.MovieDetail) ([]byte, error) {
	switch format {
	case Markdown:
		return ExportToMarkdown(title, movies, nil)
	case CSV:
		return ExportToCSV(movies)
	case JSON:
		return ExportToJSON(movies)
	default:
		return ExportToText(title, movies)
	}
}

// ExportDetail renders a single movie in format.
func ExportDetail(format Format, d *models.MovieDetail) ([]byte, error) {
	switch format {
	case Markdown:
		return DetailToMarkdown(d), nil
	case CSV:
		return ExportToCSV([]models.MovieDetail{*d})
	case JSON:
		return ExportToJSON(d)
	default:
		return DetailToText(d), nil
	}
}

// ExportToCSV converts movies to CSV with columns: IMDb ID, Title, Year, Genre, Rating, Runtime, Plot
func ExportToCSV(movies []models.MovieDetail) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"IMDb ID", "Title", "Year", "Genre", "Rating", "Runtime", "Plot"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range movies {
		record := []string{m.IMDbID, m.Title, m.Year, m.Genre, m.Rating, m.Runtime, m.Plot}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes v as indented JSON.
func ExportToJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToMarkdown converts movies to a Markdown list. posters maps IMDb ids to local image paths.
func ExportToMarkdown(title string, movies []models.MovieDetail, posters map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Movies**: %d\n\n", len(movies))

	for i, m := range movies {
		fmt.Fprintf(&buf, "## %d. %s", i+1, m.Title)
		if m.Year != "" {
			fmt.Fprintf(&buf, " (%s)", m.Year)
		}
		buf.WriteString("\n\n")

		if p := posters[m.IMDbID]; p != "" {
			fmt.Fprintf(&buf, "![Poster](%s)\n\n", p)
		}
		if m.Genre != "" {
			fmt.Fprintf(&buf, "**Genre**: %s\n", m.Genre)
		}
		if m.Rating != "" {
			fmt.Fprintf(&buf, "**Rating**: ⭐ %s\n", m.Rating)
		}
		if m.Runtime != "" {
			fmt.Fprintf(&buf, "**Runtime**: %s\n", m.Runtime)
		}
		if m.Plot != "" {
			fmt.Fprintf(&buf, "\n%s\n", m.Plot)
		}
		if len(m.StreamingLinks) > 0 {
			buf.WriteString("\n")
			for _, l := range m.StreamingLinks {
				fmt.Fprintf(&buf, "- [%s](%s)\n", l.Name, l.URL)
			}
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts movies to plain text, one line per movie.
func ExportToText(title string, movies []models.MovieDetail) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "%s\n", title)
	}
	fmt.Fprintf(&buf, "Movies: %d\n\n", len(movies))

	for i, m := range movies {
		fmt.Fprintf(&buf, "%d. %s", i+1, m.Title)
		if m.Year != "" {
			fmt.Fprintf(&buf, " (%s)", m.Year)
		}
		if m.Rating != "" {
			fmt.Fprintf(&buf, " ⭐ %s", m.Rating)
		}
		if m.IMDbID != "" {
			fmt.Fprintf(&buf, " [%s]", m.IMDbID)
		}
		buf.WriteString("\n")
		if m.Plot != "" {
			fmt.Fprintf(&buf, "   %s\n", shared.Truncate(m.Plot, 100))
		}
	}

	return buf.Bytes(), nil
}

// DetailToText renders every detail field, with "N/A" for missing ones.
func DetailToText(d *models.MovieDetail) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n\n", d.Title)
	for _, f := range detailFields(d) {
		fmt.Fprintf(&buf, "%s: %s\n", f[0], f[1])
	}
	buf.WriteString("Watch/Download:\n")
	for _, l := range d.Links() {
		fmt.Fprintf(&buf, "  %s: %s\n", l.Name, l.URL)
	}
	return buf.Bytes()
}

// DetailToMarkdown renders every detail field as a Markdown document.
func DetailToMarkdown(d *models.MovieDetail) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", d.Title)
	if d.Poster != "" && d.Poster != "N/A" {
		fmt.Fprintf(&buf, "![Poster](%s)\n\n", d.Poster)
	}
	for _, f := range detailFields(d) {
		fmt.Fprintf(&buf, "**%s**: %s\n", f[0], f[1])
	}
	buf.WriteString("\n## Watch/Download\n\n")
	for _, l := range d.Links() {
		fmt.Fprintf(&buf, "- [%s](%s)\n", l.Name, l.URL)
	}
	return buf.Bytes()
}

func detailFields(d *models.MovieDetail) [][2]string {
	return [][2]string{
		{"Year", shared.OrNA(d.Year)},
		{"Genre", shared.OrNA(d.Genre)},
		{"Director", shared.OrNA(d.Director)},
		{"Actors", shared.OrNA(d.Actors)},
		{"Runtime", shared.OrNA(d.Runtime)},
		{"Language", shared.OrNA(d.Language)},
		{"IMDB Rating", "⭐ " + shared.OrNA(d.Rating)},
		{"Metascore", shared.OrNA(d.Metascore)},
		{"Plot", shared.OrNA(d.Plot)},
	}
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" || url == "N/A" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidArgument)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Posters   int
	Warnings  []error
}

// WriteMarkdownExport writes movies to {dir}/README.md.
//
// With withPosters set, each poster is downloaded to {dir}/posters/{imdb id}.jpg and linked from
// the document. A poster that cannot be fetched is recorded as a warning and skipped.
func WriteMarkdownExport(title string, movies []models.MovieDetail, outputDir string, withPosters bool) (*MarkdownExportResult, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("%w: output directory is required", shared.ErrMissingArgument)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	posters := map[string]string{}
	if withPosters {
		if err := os.MkdirAll(filepath.Join(outputDir, "posters"), 0755); err != nil {
			return nil, fmt.Errorf("failed to create poster directory: %w", err)
		}
		for _, m := range movies {
			if m.IMDbID == "" {
				continue
			}
			data, err := DownloadImage(m.Poster)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Errorf("%s: %w", m.Title, err))
				continue
			}
			rel := filepath.Join("posters", m.IMDbID+".jpg")
			if err := os.WriteFile(filepath.Join(outputDir, rel), data, 0644); err != nil {
				result.Warnings = append(result.Warnings, fmt.Errorf("%s: failed to save poster: %w", m.Title, err))
				continue
			}
			posters[m.IMDbID] = filepath.ToSlash(rel)
			result.Files = append(result.Files, filepath.Join(outputDir, rel))
			result.Posters++
		}
	}

	mdData, err := ExportToMarkdown(title, movies, posters)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteFile writes data to path, or to w when path is empty or "-".
func WriteFile(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
