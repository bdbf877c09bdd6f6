package onnx

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	onnxrt "github.com/yalue/onnxruntime_go"
)

// SessionConfig describes how a model session is created.
type SessionConfig struct {
	ModelPath   string
	LibraryPath string
	NumThreads  int
	GPU         GPUConfig
}

// Session wraps a single-input single-output ONNX Runtime session.
type Session struct {
	mu     sync.RWMutex
	sess   *onnxrt.DynamicAdvancedSession
	Input  onnxrt.InputOutputInfo
	Output onnxrt.InputOutputInfo
}

// NewSession loads the model at cfg.ModelPath. The runtime environment is
// acquired for the lifetime of the session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("model path cannot be empty")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %w", err)
	}
	if err := ValidateGPUConfig(cfg.GPU); err != nil {
		return nil, err
	}
	if err := Acquire(cfg.LibraryPath, cfg.GPU.UseGPU); err != nil {
		return nil, err
	}

	s, err := newSession(cfg)
	if err != nil {
		_ = Release()
		return nil, err
	}
	return s, nil
}

func newSession(cfg SessionConfig) (*Session, error) {
	inputs, outputs, err := onnxrt.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("expected 1 input, got %d", len(inputs))
	}
	if len(outputs) < 1 {
		return nil, errors.New("model declares no outputs")
	}

	opts, err := onnxrt.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() {
		if err := opts.Destroy(); err != nil {
			slog.Warn("failed to destroy session options", "error", err)
		}
	}()

	if err := ConfigureSessionForGPU(opts, cfg.GPU); err != nil {
		return nil, fmt.Errorf("failed to configure GPU: %w", err)
	}
	if cfg.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	sess, err := onnxrt.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	slog.Debug("ONNX session created",
		"model", cfg.ModelPath,
		"input", inputs[0].Name, "input_dims", inputs[0].Dimensions,
		"output", outputs[0].Name, "gpu", cfg.GPU.UseGPU)

	return &Session{sess: sess, Input: inputs[0], Output: outputs[0]}, nil
}

// Run feeds in to the model and returns a copy of the first output.
func (s *Session) Run(in Tensor) (Tensor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return Tensor{}, errors.New("session is closed")
	}

	input, err := onnxrt.NewTensor(onnxrt.NewShape(in.Shape...), in.Data)
	if err != nil {
		return Tensor{}, fmt.Errorf("create input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	outputs := []onnxrt.Value{nil}
	if err := s.sess.Run([]onnxrt.Value{input}, outputs); err != nil {
		return Tensor{}, fmt.Errorf("inference failed: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				_ = o.Destroy()
			}
		}
	}()

	out, ok := outputs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return Tensor{}, fmt.Errorf("expected float32 tensor, got %T", outputs[0])
	}
	shape := out.GetShape()
	data := make([]float32, len(out.GetData()))
	copy(data, out.GetData())
	return Tensor{Data: data, Shape: []int64(shape)}, nil
}

// Close destroys the session and releases the runtime environment.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return nil
	}
	err := s.sess.Destroy()
	s.sess = nil
	if relErr := Release(); err == nil {
		err = relErr
	}
	return err
}
