package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ljbuild/internal/pipeline"
)

const allSplits = "all"

// HubOptions address one dataset subset on a datasets-server style API.
type HubOptions struct {
	BaseURL  string
	Dataset  string
	Subset   string
	Split    string // "all" concatenates every split in server order
	Token    string
	PageSize int
	Columns  Columns
	Client   *http.Client
}

type hubSplit struct {
	Dataset string `json:"dataset"`
	Config  string `json:"config"`
	Split   string `json:"split"`
}

type hubRows struct {
	Rows []struct {
		RowIdx int `json:"row_idx"`
		Row    row `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

type hubAudioCell struct {
	Src  string `json:"src"`
	Type string `json:"type"`
}

// Hub pages through rows of the selected splits.
type Hub struct {
	opts   HubOptions
	client *http.Client
	logger logrus.FieldLogger

	splits   []hubSplit
	resolved bool
	split    int
	offset   int
	total    int
	buf      []row
}

// NewHub returns a hub source. Nothing is fetched until the first Next.
func NewHub(opts HubOptions, logger logrus.FieldLogger) *Hub {
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.Split == "" {
		opts.Split = allSplits
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Hub{opts: opts, client: client, logger: logger}
}

// Next implements pipeline.Source.
func (h *Hub) Next(ctx context.Context) (pipeline.Record, error) {
	if !h.resolved {
		if err := h.resolveSplits(ctx); err != nil {
			return pipeline.Record{}, err
		}
	}
	for len(h.buf) == 0 {
		if h.split >= len(h.splits) {
			return pipeline.Record{}, io.EOF
		}
		if h.offset > 0 && h.offset >= h.total {
			h.split++
			h.offset, h.total = 0, 0
			continue
		}
		if err := h.fetchPage(ctx); err != nil {
			return pipeline.Record{}, err
		}
	}
	r := h.buf[0]
	h.buf = h.buf[1:]
	return h.record(ctx, r)
}

// Close implements pipeline.Source.
func (h *Hub) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

func (h *Hub) resolveSplits(ctx context.Context) error {
	q := url.Values{"dataset": {h.opts.Dataset}}
	var resp struct {
		Splits []hubSplit `json:"splits"`
	}
	if err := h.getJSON(ctx, "/splits", q, &resp); err != nil {
		return fmt.Errorf("list splits of %s: %w", h.opts.Dataset, err)
	}
	for _, s := range resp.Splits {
		if h.opts.Subset != "" && s.Config != h.opts.Subset {
			continue
		}
		if h.opts.Split != allSplits && s.Split != h.opts.Split {
			continue
		}
		h.splits = append(h.splits, s)
	}
	if len(h.splits) == 0 {
		return fmt.Errorf("dataset %s has no split %q in subset %q", h.opts.Dataset, h.opts.Split, h.opts.Subset)
	}
	h.resolved = true
	names := make([]string, len(h.splits))
	for i, s := range h.splits {
		names[i] = s.Split
	}
	h.logger.WithFields(logrus.Fields{"dataset": h.opts.Dataset, "subset": h.opts.Subset, "splits": names}).Info("dataset resolved")
	return nil
}

func (h *Hub) fetchPage(ctx context.Context) error {
	s := h.splits[h.split]
	q := url.Values{
		"dataset": {s.Dataset},
		"config":  {s.Config},
		"split":   {s.Split},
		"offset":  {fmt.Sprint(h.offset)},
		"length":  {fmt.Sprint(h.opts.PageSize)},
	}
	var page hubRows
	if err := h.getJSON(ctx, "/rows", q, &page); err != nil {
		return fmt.Errorf("rows %s/%s offset %d: %w", s.Config, s.Split, h.offset, err)
	}
	h.total = page.NumRowsTotal
	if len(page.Rows) == 0 {
		// Server returned nothing before the advertised total; move on.
		h.offset = h.total + 1
		if h.total == 0 {
			h.split++
			h.offset = 0
		}
		return nil
	}
	for _, r := range page.Rows {
		h.buf = append(h.buf, r.Row)
	}
	h.offset += len(page.Rows)
	h.logger.WithFields(logrus.Fields{"split": s.Split, "offset": h.offset, "total": h.total}).Debug("rows page fetched")
	return nil
}

func (h *Hub) record(ctx context.Context, r row) (pipeline.Record, error) {
	id, err := r.text(h.opts.Columns.ID)
	if err != nil {
		return pipeline.Record{}, err
	}
	text, err := r.text(h.opts.Columns.Text)
	if err != nil {
		return pipeline.Record{}, fmt.Errorf("%s: %w", id, err)
	}
	raw, ok := r[h.opts.Columns.Audio]
	if !ok {
		return pipeline.Record{}, fmt.Errorf("%s: missing column %q", id, h.opts.Columns.Audio)
	}
	src, err := audioSrc(raw)
	if err != nil {
		return pipeline.Record{}, fmt.Errorf("%s: %w", id, err)
	}
	data, err := h.download(ctx, src)
	if err != nil {
		return pipeline.Record{}, fmt.Errorf("%s: fetch audio: %w", id, err)
	}
	return pipeline.Record{ID: id, Transcript: text, Audio: pipeline.EncodedAudio{Data: data}}, nil
}

// audioSrc accepts the list form [{src,type}] and a bare object.
func audioSrc(raw json.RawMessage) (string, error) {
	var cells []hubAudioCell
	if err := json.Unmarshal(raw, &cells); err == nil && len(cells) > 0 && cells[0].Src != "" {
		return cells[0].Src, nil
	}
	var cell hubAudioCell
	if err := json.Unmarshal(raw, &cell); err == nil && cell.Src != "" {
		return cell.Src, nil
	}
	return "", fmt.Errorf("audio cell has no src: %s", truncate(string(raw), 80))
}

func (h *Hub) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.opts.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	h.authorize(req)
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (h *Hub) download(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	if h.trusted(req.URL) {
		h.authorize(req)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (h *Hub) authorize(req *http.Request) {
	if h.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.opts.Token)
	}
}

// trusted limits the bearer token to the API host and huggingface.co.
func (h *Hub) trusted(u *url.URL) bool {
	base, err := url.Parse(h.opts.BaseURL)
	if err == nil && base.Host == u.Host {
		return true
	}
	host := u.Hostname()
	return host == "huggingface.co" || strings.HasSuffix(host, ".huggingface.co")
}
