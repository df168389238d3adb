package model

import (
	"context"
	"io"
	"log/slog"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/modelhike/modelhike-sub001/lex"
	"github.com/modelhike/modelhike-sub001/log"
)

// yamlModel is the document shape of YAML model files. Properties and APIs
// use the same one-line notation as the markup DSL.
type yamlModel struct {
	Containers []struct {
		Name    string         `yaml:"name"`
		Attribs map[string]any `yaml:"attribs"`
		Modules []struct {
			Name     string         `yaml:"name"`
			Attribs  map[string]any `yaml:"attribs"`
			Entities []struct {
				Name       string         `yaml:"name"`
				DTO        bool           `yaml:"dto"`
				Tags       []string       `yaml:"tags"`
				Attribs    map[string]any `yaml:"attribs"`
				Properties []string       `yaml:"properties"`
				APIs       []string       `yaml:"apis"`
			} `yaml:"entities"`
		} `yaml:"modules"`
	} `yaml:"containers"`
}

// ParseYAML reads a YAML model from r and merges it into m.
func ParseYAML(
	ctx context.Context,
	source string,
	r io.Reader,
	m *Model,
	logger log.Logger,
) (*Model, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	var doc yamlModel
	if err := yaml.NewDecoder(ra).DecodeContext(ctx, &doc); err != nil {
		return nil, ErrReadModel.Wrap(err).With(slog.String("source", source))
	}

	if m == nil {
		m = new(Model)
	}

	p := &parser{model: m, logger: logger}

	for _, yc := range doc.Containers {
		p.openContainer(yc.Name)
		mergeAttribs(p.container.Attribs, yc.Attribs)

		for _, ym := range yc.Modules {
			p.openModule(ym.Name)
			mergeAttribs(p.module.Attribs, ym.Attribs)

			for _, ye := range ym.Entities {
				if _, dup := m.Entity(ye.Name); dup {
					return nil, ErrDuplicateEntity.With(
						slog.String("source", source),
						slog.String("entity", ye.Name),
					)
				}

				e := &Entity{Name: ye.Name, Module: p.module, Attribs: Attribs{}}
				if ye.DTO {
					e.Kind = EntityDTO
				}

				for _, t := range ye.Tags {
					e.Tags = append(e.Tags, lex.Tag{Name: t})
				}

				mergeAttribs(e.Attribs, ye.Attribs)

				for _, line := range ye.Properties {
					prop, ok := ParseProperty(line)
					if !ok {
						return nil, ErrInvalidModelLine.With(
							slog.String("source", source),
							slog.String("entity", e.Name),
							slog.String("text", line),
						)
					}

					prop.Entity = e
					e.Properties = append(e.Properties, prop)
				}

				for _, line := range ye.APIs {
					a, ok := ParseAPI(line, e.Name)
					if !ok {
						return nil, ErrInvalidModelLine.With(
							slog.String("source", source),
							slog.String("entity", e.Name),
							slog.String("text", line),
						)
					}

					a.Entity = e
					e.APIs = append(e.APIs, a)
				}

				p.module.Entities = append(p.module.Entities, e)
			}
		}
	}

	logger.TraceContext(ctx, "yaml model parsed",
		slog.String("source", source),
		slog.Int("containers", len(m.Containers)),
	)

	return m, nil
}

func mergeAttribs(dst Attribs, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}
