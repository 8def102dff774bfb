package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/docker/go-units"

	"github.com/emergingrobotics/go-magika/pkg/magika"
	"github.com/emergingrobotics/go-magika/pkg/magikaerr"
	"github.com/emergingrobotics/go-magika/pkg/model"
)

type printer struct {
	w     io.Writer
	flags *rootFlags
}

func newPrinter(w io.Writer, flags *rootFlags) *printer {
	return &printer{w: w, flags: flags}
}

type jsonValue struct {
	DL     model.ContentType `json:"dl"`
	Output model.ContentType `json:"output"`
	Score  float32           `json:"score"`
}

type jsonResult struct {
	Status  string     `json:"status"`
	Value   *jsonValue `json:"value,omitempty"`
	Kind    string     `json:"kind,omitempty"`
	Message string     `json:"message,omitempty"`
}

type jsonRecord struct {
	Path   string     `json:"path"`
	Result jsonResult `json:"result"`
}

func (p *printer) print(results []magika.Result) error {
	switch {
	case p.flags.jsonOutput:
		records := make([]jsonRecord, len(results))
		for i, r := range results {
			records[i] = toRecord(r)
		}
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)

	case p.flags.jsonlOutput:
		enc := json.NewEncoder(p.w)
		for _, r := range results {
			if err := enc.Encode(toRecord(r)); err != nil {
				return err
			}
		}
		return nil

	default:
		for _, r := range results {
			if _, err := fmt.Fprintln(p.w, p.line(r)); err != nil {
				return err
			}
		}
		return nil
	}
}

func (p *printer) line(r magika.Result) string {
	var b strings.Builder
	b.WriteString(r.Path)
	b.WriteString(": ")

	if r.Err != nil {
		b.WriteString("error: ")
		b.WriteString(describe(r.Err))
		return b.String()
	}

	out := r.Prediction.Output
	switch {
	case p.flags.label:
		b.WriteString(out.Label)
	case p.flags.mimeType:
		b.WriteString(out.MimeType)
	default:
		fmt.Fprintf(&b, "%s (%s)", out.Description, out.Group)
	}

	if p.flags.outputScore {
		fmt.Fprintf(&b, " %d%%", int(r.Prediction.Score*100+0.5))
	}
	if p.flags.verbose && r.Path != stdinPath {
		if info, err := os.Stat(r.Path); err == nil && info.Mode().IsRegular() {
			fmt.Fprintf(&b, " [%s]", units.HumanSize(float64(info.Size())))
		}
	}
	return b.String()
}

func toRecord(r magika.Result) jsonRecord {
	if r.Err != nil {
		kind, _ := magikaerr.KindOf(r.Err)
		return jsonRecord{
			Path: r.Path,
			Result: jsonResult{
				Status:  "error",
				Kind:    kind.Name(),
				Message: describe(r.Err),
			},
		}
	}
	return jsonRecord{
		Path: r.Path,
		Result: jsonResult{
			Status: "ok",
			Value: &jsonValue{
				DL:     r.Prediction.DL,
				Output: r.Prediction.Output,
				Score:  r.Prediction.Score,
			},
		},
	}
}

// describe renders the stable label followed by the payload detail
func describe(err error) string {
	var e *magikaerr.Error
	if errors.As(err, &e) {
		if d := e.Detail(); d != "" {
			return e.Error() + ": " + d
		}
	}
	return err.Error()
}
