package main

import (
	"log/slog"

	"github.com/emergingrobotics/go-magika/pkg/config"
	"github.com/emergingrobotics/go-magika/pkg/infer"
	"github.com/emergingrobotics/go-magika/pkg/infer/ort"
	"github.com/emergingrobotics/go-magika/pkg/magika"
	"github.com/emergingrobotics/go-magika/pkg/model"
)

// sessionOpener builds a classifier from finalized configuration
type sessionOpener func(cfg *config.Config, logger *slog.Logger) (*magika.Session, error)

func openSession(cfg *config.Config, logger *slog.Logger) (*magika.Session, error) {
	m, err := model.Load(cfg.Model.Dir)
	if err != nil {
		return nil, err
	}

	runner, err := ort.Open(m.Path(), ort.Options{
		LibraryPath:    cfg.Runtime.LibraryPath,
		IntraOpThreads: cfg.Runtime.IntraOpThreads,
		Info:           infer.InfoFromConfig(m.Config),
	})
	if err != nil {
		return nil, err
	}

	opts := append(cfg.Classify.Options(), magika.WithLogger(logger))
	s, err := magika.New(m, runner, opts...)
	if err != nil {
		runner.Close()
		return nil, err
	}

	logger.Debug("model loaded",
		"dir", m.Dir,
		"labels", m.Config.NumLabels(),
		"version", m.Config.VersionMajor,
		"mode", string(s.Mode()),
	)
	return s, nil
}
