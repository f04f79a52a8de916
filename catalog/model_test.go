package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelKey(t *testing.T) {
	m := &Model{Name: "liver_seg", NetworkType: "nnUNet"}
	assert.Equal(t, "nnUNet/liver_seg", m.Key())
}

func TestModelValidate(t *testing.T) {
	tests := []struct {
		name    string
		model   Model
		wantErr bool
	}{
		{"valid", Model{Name: "liver_seg", NetworkType: "nnUNet"}, false},
		{"missing name", Model{NetworkType: "nnUNet"}, true},
		{"slash in name", Model{Name: "a/b", NetworkType: "nnUNet"}, true},
		{"unknown network type", Model{Name: "x", NetworkType: "pytorch"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.model.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeDefaultsAlias(t *testing.T) {
	m := &Model{Name: "liver_seg", NetworkType: "nnUNet"}
	m.Normalize()
	assert.Equal(t, "liver_seg", m.Alias)

	m = &Model{Name: "liver_seg", NetworkType: "nnUNet", Alias: "Liver"}
	m.Normalize()
	assert.Equal(t, "Liver", m.Alias)
}

func TestLoadModel(t *testing.T) {
	data := []byte(`{
		"name": "total_body",
		"network_type": "totalsegmentator",
		"enabled": true,
		"description": "whole body segmentation",
		"inference_information": {
			"version": "1.5.6",
			"inference_args": {
				"fast": true,
				"body_seg": false,
				"roi_subset": "lung_left"
			}
		}
	}`)

	m, err := LoadModel(data)
	require.NoError(t, err)
	assert.Equal(t, "total_body", m.Name)
	assert.Equal(t, "total_body", m.Alias)
	assert.True(t, m.Enabled)
	// boolean false args are dropped, true booleans become bare flags,
	// values are rendered key-sorted
	assert.Equal(t, " --fast --roi_subset lung_left", m.InferenceArgs)
}

func TestLoadModelKeepsExplicitArgs(t *testing.T) {
	data := []byte(`{
		"name": "m",
		"network_type": "nnUNet",
		"inference_args": " --custom 1",
		"inference_information": {"inference_args": {"other": 2}}
	}`)

	m, err := LoadModel(data)
	require.NoError(t, err)
	assert.Equal(t, " --custom 1", m.InferenceArgs)
}

func TestLoadModelBadJSON(t *testing.T) {
	_, err := LoadModel([]byte(`{"name": `))
	assert.Error(t, err)
}

func TestModelRoundTrip(t *testing.T) {
	m := &Model{
		Name:        "vista_organ",
		NetworkType: "vista3d",
		Enabled:     true,
		Alias:       "Vista Organ",
		Version:     "2.0",
		ContourNames: map[string]any{
			"1": "liver",
			"2": "spleen",
		},
	}

	data, err := m.Bytes()
	require.NoError(t, err)

	got, err := LoadModel(data)
	require.NoError(t, err)
	assert.Equal(t, m.Name, got.Name)
	assert.Equal(t, m.Alias, got.Alias)
	assert.Equal(t, m.ContourNames, got.ContourNames)
}

func TestRenderInferenceArgs(t *testing.T) {
	t.Run("empty information", func(t *testing.T) {
		assert.Equal(t, "", renderInferenceArgs(nil))
		assert.Equal(t, "", renderInferenceArgs(map[string]any{}))
		assert.Equal(t, "", renderInferenceArgs(map[string]any{"version": "1.0"}))
	})

	t.Run("dashed keys are kept as-is", func(t *testing.T) {
		got := renderInferenceArgs(map[string]any{
			"inference_args": map[string]any{"-f": "all", "step": 0.5},
		})
		assert.Equal(t, " -f all --step 0.5", got)
	})
}
