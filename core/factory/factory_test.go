package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type store struct {
	Path    string
	MaxSize int
}

type storeConf struct {
	Path    string `json:"path"`
	MaxSize int    `json:"max_size_mb"`
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*store]()
	if err := reg.Register("jsonl", func(conf map[string]any) (*store, error) {
		var c storeConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &store{Path: c.Path, MaxSize: c.MaxSize}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": "reports.jsonl", "max_size_mb": "5"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	assert.Equal(t, "reports.jsonl", inst.Path)
	assert.Equal(t, 5, inst.MaxSize, "weakly typed input decodes strings")
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("y", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	_, err := reg.Create(ModuleConfig{Type: "y"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "[x]")
	}
	assert.Equal(t, []string{"x"}, reg.Names())
}
