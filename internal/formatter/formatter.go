// package formatter renders video collections as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
)

// Supported formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// ParseFormat normalises a user-supplied format name.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (json, csv, markdown, txt)", shared.ErrInvalidFlag, s)
}

// Collection is a named list of videos: a catalog page walk, a channel, a history.
type Collection struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	ExportedAt  time.Time      `json:"exportedAt"`
	Videos      []models.Video `json:"videos"`
}

// Metadata is a Collection without its videos.
type Metadata struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ExportedAt  time.Time `json:"exportedAt"`
	VideoCount  int       `json:"videoCount"`
}

// Metadata summarises c.
func (c *Collection) Metadata() Metadata {
	return Metadata{Name: c.Name, Description: c.Description, ExportedAt: c.ExportedAt, VideoCount: len(c.Videos)}
}

// ExportToCSV converts a Collection to CSV with columns: ID, Title, Owner, Duration, Views, Published, Approved, Created
func ExportToCSV(c *Collection) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Owner", "Duration", "Views", "Published", "Approved", "Created"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, v := range c.Videos {
		created := ""
		if !v.CreatedAt.IsZero() {
			created = v.CreatedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			v.ID,
			v.Title,
			v.OwnerName(),
			strconv.Itoa(int(v.Duration)),
			strconv.Itoa(v.Views),
			strconv.FormatBool(v.IsPublished),
			strconv.FormatBool(v.IsApproved),
			created,
		}
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

// ExportToMarkdown converts a Collection to Markdown. thumbs maps video IDs to local
// thumbnail paths relative to the document; missing entries fall back to the remote URL.
func ExportToMarkdown(c *Collection, thumbs map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", c.Name)
	if c.Description != "" {
		fmt.Fprintf(&buf, "%s\n\n", c.Description)
	}
	fmt.Fprintf(&buf, "**Videos**: %d\n", len(c.Videos))
	if !c.ExportedAt.IsZero() {
		fmt.Fprintf(&buf, "**Exported**: %s\n", c.ExportedAt.UTC().Format(time.RFC1123))
	}
	buf.WriteString("\n## Videos\n\n")

	for i, v := range c.Videos {
		owner := ""
		if name := v.OwnerName(); name != "" {
			owner = " by " + name
		}
		fmt.Fprintf(&buf, "%d. **%s**%s [%s] %s views\n", i+1, v.Title, owner, v.DurationString(), strconv.Itoa(v.Views))

		thumb := thumbs[v.ID]
		if thumb == "" {
			thumb = v.Thumbnail
		}
		if thumb != "" {
			fmt.Fprintf(&buf, "   ![%s](%s)\n", v.Title, thumb)
		}
		if v.Description != "" {
			fmt.Fprintf(&buf, "   > %s\n", strings.ReplaceAll(v.Description, "\n", " "))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Collection to plain text.
func ExportToText(c *Collection) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Collection: %s\n", c.Name)
	if c.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", c.Description)
	}
	fmt.Fprintf(&buf, "Videos: %d\n\n", len(c.Videos))

	if err := WriteVideoList(&buf, c.Videos); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteVideoList writes one numbered line per video.
func WriteVideoList(w io.Writer, videos []models.Video) error {
	for i, v := range videos {
		line := fmt.Sprintf("%d. %s [%s]", i+1, v.Title, v.DurationString())
		if name := v.OwnerName(); name != "" {
			line += " - " + name
		}
		if _, err := fmt.Fprintf(w, "%s  (%s)\n", line, v.ID); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidInput)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download image: %v", shared.ErrNetwork, err)
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

// ExportOpts controls [WriteExport].
type ExportOpts struct {
	Format string
	// Thumbnails downloads each thumbnail next to a Markdown export.
	Thumbnails bool
	Client     *http.Client
	// Warn receives non-fatal problems such as a failed thumbnail download.
	Warn func(msg string, kv ...any)
}

// WriteExport writes c under dir as base.{ext} and returns the files created. CSV
// exports also get a {base}_metadata.json; Markdown exports get their own directory.
func WriteExport(ctx context.Context, c *Collection, dir, base string, opts ExportOpts) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	switch opts.Format {
	case FormatCSV:
		return writeCSVExport(c, filepath.Join(dir, base))
	case FormatMarkdown:
		return writeMarkdownExport(ctx, c, filepath.Join(dir, base), opts)
	case FormatText:
		data, err := ExportToText(c)
		if err != nil {
			return nil, err
		}
		return writeFile(filepath.Join(dir, base+".txt"), data)
	default:
		data, err := shared.MarshalJSON(c, true)
		if err != nil {
			return nil, fmt.Errorf("JSON marshal failed: %w", err)
		}
		return writeFile(filepath.Join(dir, base+".json"), data)
	}
}

func writeFile(path string, data []byte) ([]string, error) {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return []string{path}, nil
}

func writeCSVExport(c *Collection, basePath string) ([]string, error) {
	csvData, err := ExportToCSV(c)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	videosFile := basePath + "_videos.csv"
	if err := os.WriteFile(videosFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := shared.MarshalJSON(c.Metadata(), true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := basePath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return []string{videosFile, metadataFile}, nil
}

// writeMarkdownExport creates {dir}/README.md and, with thumbnails, {dir}/thumbs/{id}.jpg.
func writeMarkdownExport(ctx context.Context, c *Collection, outputDir string, opts ExportOpts) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	var files []string
	thumbs := map[string]string{}

	if opts.Thumbnails {
		thumbDir := filepath.Join(outputDir, "thumbs")
		if err := os.MkdirAll(thumbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create thumbnail directory: %w", err)
		}

		for _, v := range c.Videos {
			if v.Thumbnail == "" || v.ID == "" {
				continue
			}
			data, err := DownloadImage(ctx, opts.Client, v.Thumbnail)
			if err != nil {
				warn(opts, "failed to download thumbnail", "video", v.ID, "error", err)
				continue
			}
			path := filepath.Join(thumbDir, v.ID+".jpg")
			if err := os.WriteFile(path, data, 0644); err != nil {
				warn(opts, "failed to save thumbnail", "video", v.ID, "error", err)
				continue
			}
			thumbs[v.ID] = "thumbs/" + v.ID + ".jpg"
			files = append(files, path)
		}
	}

	mdData, err := ExportToMarkdown(c, thumbs)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return append(files, mdFile), nil
}

func warn(opts ExportOpts, msg string, kv ...any) {
	if opts.Warn != nil {
		opts.Warn(msg, kv...)
	}
}
