package model

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// --- Serialization ---

const modelVersion = 1

type serializedLayer struct {
	W      []float64
	B      []float64
	InDim  int
	OutDim int
	Act    int
}

type serializedModel struct {
	Version int
	Kind    string
	Context int
	// APC: [net]. CPC: [encoder, context, step 0, step 1, ...].
	Nets [][]serializedLayer
}

func encodeNet(n *Network) []serializedLayer {
	out := make([]serializedLayer, len(n.Layers))
	for i, l := range n.Layers {
		out[i] = serializedLayer{W: l.W, B: l.B, InDim: l.InDim, OutDim: l.OutDim, Act: int(l.Act)}
	}
	return out
}

func decodeNet(layers []serializedLayer) (*Network, error) {
	n := &Network{Layers: make([]Layer, len(layers))}
	for i, l := range layers {
		n.Layers[i] = Layer{W: l.W, B: l.B, InDim: l.InDim, OutDim: l.OutDim, Act: Activation(l.Act)}
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Save serializes an APC or CPC model with gob encoding.
func Save(w io.Writer, m Model) error {
	var sd serializedModel
	switch m := m.(type) {
	case *APC:
		sd = serializedModel{Version: modelVersion, Kind: string(KindAPC), Context: m.Context,
			Nets: [][]serializedLayer{encodeNet(m.Net)}}
	case *CPC:
		sd = serializedModel{Version: modelVersion, Kind: string(KindCPC), Context: m.Window,
			Nets: [][]serializedLayer{encodeNet(m.Encoder), encodeNet(m.Context)}}
		for _, s := range m.Steps {
			sd.Nets = append(sd.Nets, encodeNet(s))
		}
	default:
		return fmt.Errorf("cannot serialize model of type %T", m)
	}
	return gob.NewEncoder(w).Encode(sd)
}

// Load deserializes a model written by Save.
func Load(r io.Reader) (Model, error) {
	var sd serializedModel
	if err := gob.NewDecoder(r).Decode(&sd); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if sd.Version != modelVersion {
		return nil, fmt.Errorf("unsupported model version %d", sd.Version)
	}
	if sd.Context <= 0 {
		return nil, fmt.Errorf("invalid context length %d", sd.Context)
	}
	nets := make([]*Network, len(sd.Nets))
	for i, layers := range sd.Nets {
		n, err := decodeNet(layers)
		if err != nil {
			return nil, fmt.Errorf("network %d: %w", i, err)
		}
		nets[i] = n
	}

	switch Kind(sd.Kind) {
	case KindAPC:
		if len(nets) != 1 {
			return nil, fmt.Errorf("apc model has %d networks, want 1", len(nets))
		}
		fd := nets[0].OutputDim()
		if nets[0].InputDim() != sd.Context*fd {
			return nil, fmt.Errorf("apc input %d does not match context %d × dim %d", nets[0].InputDim(), sd.Context, fd)
		}
		return &APC{Net: nets[0], Context: sd.Context, FeatureDim: fd}, nil
	case KindCPC:
		if len(nets) < 3 {
			return nil, fmt.Errorf("cpc model has %d networks, want at least 3", len(nets))
		}
		m := &CPC{Encoder: nets[0], Context: nets[1], Steps: nets[2:], Window: sd.Context}
		if m.Context.InputDim() != m.Window*m.LatentDim() {
			return nil, fmt.Errorf("cpc context input %d does not match window %d × latent %d", m.Context.InputDim(), m.Window, m.LatentDim())
		}
		for i, s := range m.Steps {
			if s.InputDim() != m.Context.OutputDim() || s.OutputDim() != m.LatentDim() {
				return nil, fmt.Errorf("cpc step %d projection is %d→%d", i, s.InputDim(), s.OutputDim())
			}
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown model kind %q", sd.Kind)
}

// SaveFile writes m to path, creating parent directories.
func SaveFile(path string, m Model) error {
	var buf bytes.Buffer
	if err := Save(&buf, m); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// LoadFile reads a model from path.
func LoadFile(path string) (Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
