package model

import (
	"fmt"
	"log"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/SPEECHCOG/metaeval-experiments/tensor"
)

// ONNXOptions configures an ONNX Runtime backed model.
type ONNXOptions struct {
	// LibraryPath is the onnxruntime shared library. Empty uses the
	// runtime's default lookup.
	LibraryPath string
	InputName   string
	// OutputNames defaults to ["predictions"] for APC and
	// ["latents", "predictions"] for CPC.
	OutputNames []string
	// Threads sets intra-op parallelism; 0 lets the runtime decide.
	Threads int
}

func (o ONNXOptions) withDefaults(kind Kind) ONNXOptions {
	if o.InputName == "" {
		o.InputName = "features"
	}
	if len(o.OutputNames) == 0 {
		if kind == KindCPC {
			o.OutputNames = []string{"latents", "predictions"}
		} else {
			o.OutputNames = []string{"predictions"}
		}
	}
	return o
}

func (o ONNXOptions) validate(kind Kind) error {
	want := 1
	if kind == KindCPC {
		want = 2
	}
	if len(o.OutputNames) != want {
		return fmt.Errorf("%s model needs %d output names, got %d", kind, want, len(o.OutputNames))
	}
	return nil
}

// ONNX runs an exported APC or CPC graph through ONNX Runtime. The graph
// takes float32 windows [W, S, F]; APC returns [W, S, F], CPC returns
// latents [W, S, Z] and predictions [W, S, Z, K].
type ONNX struct {
	kind    Kind
	session *ort.DynamicAdvancedSession
}

// OpenONNX loads the graph at path.
func OpenONNX(path string, kind Kind, opts ONNXOptions) (*ONNX, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	opts = opts.withDefaults(kind)
	if err := opts.validate(kind); err != nil {
		return nil, err
	}

	if !ort.IsInitialized() {
		if opts.LibraryPath != "" {
			ort.SetSharedLibraryPath(opts.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	so, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer so.Destroy()
	if err := so.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, fmt.Errorf("failed to set graph optimization: %w", err)
	}
	if opts.Threads > 0 {
		if err := so.SetIntraOpNumThreads(opts.Threads); err != nil {
			log.Printf("onnx: failed to set thread count: %v", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(path, []string{opts.InputName}, opts.OutputNames, so)
	if err != nil {
		return nil, fmt.Errorf("failed to create session for %s: %w", path, err)
	}
	return &ONNX{kind: kind, session: session}, nil
}

func (m *ONNX) Kind() Kind { return m.kind }

// Predict runs one batch through the session.
func (m *ONNX) Predict(windows [][][]float64) (Output, error) {
	x, w, s, f, err := flatten(windows)
	if err != nil {
		return Output{}, err
	}
	in32 := make([]float32, len(x))
	for i, v := range x {
		in32[i] = float32(v)
	}
	input, err := ort.NewTensor(ort.NewShape(int64(w), int64(s), int64(f)), in32)
	if err != nil {
		return Output{}, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	n := 1
	if m.kind == KindCPC {
		n = 2
	}
	outputs := make([]ort.Value, n)
	if err := m.session.Run([]ort.Value{input}, outputs); err != nil {
		return Output{}, fmt.Errorf("inference failed: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	if m.kind == KindAPC {
		data, shape, err := tensorData(outputs[0], 3)
		if err != nil {
			return Output{}, err
		}
		return SingleOutput(tensor.T3{Data: data, Shape: [3]int{shape[0], shape[1], shape[2]}}), nil
	}
	zData, zShape, err := tensorData(outputs[0], 3)
	if err != nil {
		return Output{}, fmt.Errorf("latents: %w", err)
	}
	pData, pShape, err := tensorData(outputs[1], 4)
	if err != nil {
		return Output{}, fmt.Errorf("predictions: %w", err)
	}
	return PairOutput(
		tensor.T3{Data: zData, Shape: [3]int{zShape[0], zShape[1], zShape[2]}},
		tensor.T4{Data: pData, Shape: [4]int{pShape[0], pShape[1], pShape[2], pShape[3]}},
	), nil
}

// tensorData copies a float32 output into float64 storage. The copy must be
// taken before the output value is destroyed.
func tensorData(v ort.Value, rank int) ([]float64, []int, error) {
	t, ok := v.(*ort.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("output tensor is not float32 type")
	}
	shape := t.GetShape()
	if len(shape) != rank {
		return nil, nil, fmt.Errorf("output has rank %d, want %d", len(shape), rank)
	}
	dims := make([]int, rank)
	for i, d := range shape {
		dims[i] = int(d)
	}
	src := t.GetData()
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out, dims, nil
}

// Close releases the session.
func (m *ONNX) Close() error {
	if m.session != nil {
		return m.session.Destroy()
	}
	return nil
}
