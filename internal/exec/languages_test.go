package exec

import "testing"

func TestRegistryDefaults(t *testing.T) {
	r := NewRegistry()

	for _, id := range []string{"javascript", "typescript", "python", "cpp", "java"} {
		lang, ok := r.Get(id)
		if !ok {
			t.Errorf("expected %s to be registered", id)
			continue
		}
		if lang.SourceFile == "" {
			t.Errorf("%s: missing source file name", id)
		}
		if len(lang.RunCmd) == 0 {
			t.Errorf("%s: missing run command", id)
		}
		if lang.Image == "" {
			t.Errorf("%s: missing docker image", id)
		}
	}
}

func TestRegistryRejectsUnknown(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("brainfuck"); ok {
		t.Error("unknown language should not resolve")
	}
}

func TestRegistryRegisterOverride(t *testing.T) {
	r := NewRegistry()
	r.Register(Language{
		ID:         "python",
		Name:       "Python 2",
		SourceFile: "main.py",
		RunCmd:     []string{"python2", "main.py"},
	})

	lang, ok := r.Get("python")
	if !ok {
		t.Fatal("python not found after override")
	}
	if lang.RunCmd[0] != "python2" {
		t.Errorf("expected override to win, got %v", lang.RunCmd)
	}
}
