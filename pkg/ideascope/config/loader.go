package config

import (
	"fmt"

	"github.com/cognicore/ideascope/pkg/ideascope/stoplist"
	"github.com/cognicore/ideascope/pkg/ideascope/textnorm"
)

// Loader loads configuration files and constructs components
type Loader struct {
	// StoplistPath names a YAML file whose terms extend the English list.
	StoplistPath string
	// NoEnglish drops the built-in English list.
	NoEnglish bool
}

// Components holds the loaded configuration components
type Components struct {
	Stoplist   *stoplist.Manager
	Normalizer *textnorm.Normalizer
}

// Load reads configuration files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	var mgr *stoplist.Manager
	if l.NoEnglish {
		mgr = stoplist.NewManager(nil)
	} else {
		mgr = stoplist.NewEnglishManager()
	}

	if l.StoplistPath != "" {
		sl, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		for _, term := range sl.Terms {
			mgr.Add(term)
		}
	}

	return &Components{
		Stoplist:   mgr,
		Normalizer: textnorm.NewNormalizerFromManager(mgr),
	}, nil
}
