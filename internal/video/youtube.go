package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog"

	"github.com/shortssprint/shortssprint/internal/api"
)

// URL shapes accepted for download requests; tried in order, so the
// bare-ID pattern comes last.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`),
}

// ExtractVideoID pulls the 11-character video ID out of any supported
// YouTube URL form, or accepts a bare ID.
func ExtractVideoID(input string) (string, error) {
	input = strings.TrimSpace(input)
	for _, p := range idPatterns {
		if m := p.FindStringSubmatch(input); m != nil {
			return m[1], nil
		}
	}
	return "", api.Errorf(api.KindValidation, "could not extract a video ID from %q", input)
}

// Info is the subset of yt-dlp's metadata we keep per download.
type Info struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Duration    float64 `json:"duration"`
	Uploader    string  `json:"uploader"`
	UploadDate  string  `json:"upload_date"`
	ViewCount   int64   `json:"view_count"`
	Description string  `json:"description"`
}

// DownloadResult describes one completed download.
type DownloadResult struct {
	VideoID  string `json:"video_id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size_bytes"`
	Info     *Info  `json:"info,omitempty"`
}

// Downloader fetches videos into a Store via yt-dlp. The run func is a
// seam so tests can fake the external binary.
type Downloader struct {
	store *Store
	log   zerolog.Logger

	run   func(ctx context.Context, url, outPath string) (string, error)
	delay func(attempt int) time.Duration
}

// NewDownloader ensures the yt-dlp binary is available (downloading it
// on first use) and returns a ready Downloader.
func NewDownloader(store *Store, log zerolog.Logger) *Downloader {
	ytdlp.MustInstall(context.Background(), nil)
	d := &Downloader{store: store, log: log}
	d.run = d.runYtdlp
	d.delay = func(attempt int) time.Duration { return time.Duration(attempt) * time.Second }
	return d
}

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func (d *Downloader) runYtdlp(ctx context.Context, url, outPath string) (string, error) {
	dl := ytdlp.New().
		Format("bestvideo[ext=mp4][height<=1080]+bestaudio[ext=m4a]/best[ext=mp4]/best").
		MergeOutputFormat("mp4").
		UserAgent(browserUA).
		Referer("https://www.youtube.com/").
		RestrictFilenames().
		ForceOverwrites().
		PrintJSON().
		Output(outPath)

	res, err := dl.Run(ctx, url)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Download fetches the video behind input into the store, naming the
// file {timestamp}_{contentType}_{videoID}.mp4. Transient fetch
// failures are retried twice before giving up. A zero-byte output is
// treated as a failure and cleaned up.
func (d *Downloader) Download(ctx context.Context, input, contentType string) (*DownloadResult, error) {
	videoID, err := ExtractVideoID(input)
	if err != nil {
		return nil, err
	}

	if contentType == "" {
		contentType = "video"
	}
	filename := fmt.Sprintf("%s_%s_%s.mp4",
		time.Now().Format("20060102_150405"), sanitizeFilename(contentType), videoID)
	outPath := filepath.Join(d.store.Dir(), filename)
	url := "https://www.youtube.com/watch?v=" + videoID

	var stdout string
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		stdout, lastErr = d.run(ctx, url, outPath)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, api.Errorf(api.KindUpstreamFailure, "download cancelled: %v", ctx.Err())
		}
		d.log.Warn().Err(lastErr).Str("video_id", videoID).Int("attempt", attempt).Msg("yt-dlp failed")
		if attempt < 3 {
			select {
			case <-time.After(d.delay(attempt)):
			case <-ctx.Done():
				return nil, api.Errorf(api.KindUpstreamFailure, "download cancelled: %v", ctx.Err())
			}
		}
	}
	if lastErr != nil {
		os.Remove(outPath)
		return nil, api.Errorf(api.KindUpstreamFailure, "yt-dlp failed after 3 attempts: %v", lastErr)
	}

	st, err := os.Stat(outPath)
	if err != nil || st.Size() == 0 {
		os.Remove(outPath)
		return nil, api.E(api.KindUpstreamFailure, "download produced no file")
	}

	result := &DownloadResult{
		VideoID:  videoID,
		Filename: filename,
		Size:     st.Size(),
		Info:     parseInfo(stdout),
	}
	d.log.Info().Str("video_id", videoID).Str("filename", filename).Int64("bytes", st.Size()).Msg("youtube download complete")
	return result, nil
}

// parseInfo pulls metadata from yt-dlp's --print-json output. Metadata
// is best effort; a parse failure never fails the download.
func parseInfo(stdout string) *Info {
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var info Info
		if err := json.Unmarshal([]byte(line), &info); err == nil && info.ID != "" {
			return &info
		}
	}
	return nil
}
