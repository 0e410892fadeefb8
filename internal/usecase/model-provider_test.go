package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"object-detection-service/internal/domain"
	"object-detection-service/internal/testutil"
)

func upload(name, content string) *domain.ModelUpload {
	return &domain.ModelUpload{Filename: name, Content: strings.NewReader(content)}
}

func TestModelProvider_Default(t *testing.T) {
	def := new(testutil.MockDetector)
	loader := new(testutil.MockDetectorLoader)
	p := NewModelProvider(def, loader, t.TempDir())

	for _, up := range []*domain.ModelUpload{nil, {Filename: ""}} {
		active, err := p.Resolve(context.Background(), up)
		require.NoError(t, err)
		assert.Same(t, def, active.Detector)
		assert.Equal(t, domain.ModelSourceDefault, active.Source)
		assert.False(t, active.Ephemeral())
		assert.Empty(t, active.ArtifactPath())

		p.Dispose(active)
	}

	def.AssertNotCalled(t, "Close")
	loader.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
	assert.True(t, p.DefaultLoaded())
}

func TestModelProvider_DefaultUnavailable(t *testing.T) {
	p := NewModelProvider(nil, new(testutil.MockDetectorLoader), t.TempDir())

	active, err := p.Resolve(context.Background(), nil)
	assert.Nil(t, active)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.False(t, p.DefaultLoaded())
}

func TestModelProvider_Ephemeral(t *testing.T) {
	dir := t.TempDir()
	custom := new(testutil.MockDetector)
	loader := new(testutil.MockDetectorLoader)
	p := NewModelProvider(new(testutil.MockDetector), loader, dir)

	var loadedPath string
	loader.On("Load", mock.Anything, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			loadedPath = args.String(1)
			content, err := os.ReadFile(loadedPath)
			assert.NoError(t, err)
			assert.Equal(t, "weights", string(content))
		}).
		Return(custom, nil)
	custom.On("Close").Return(nil)

	active, err := p.Resolve(context.Background(), upload("custom.pt", "weights"))
	require.NoError(t, err)
	assert.Same(t, custom, active.Detector)
	assert.True(t, active.Ephemeral())
	assert.Equal(t, "custom.pt", active.Filename)
	assert.Equal(t, loadedPath, active.ArtifactPath())
	assert.Equal(t, dir, filepath.Dir(loadedPath))
	assert.Equal(t, ".pt", filepath.Ext(loadedPath))

	p.Dispose(active)
	p.Dispose(active)

	custom.AssertNumberOfCalls(t, "Close", 1)
	_, err = os.Stat(loadedPath)
	assert.True(t, os.IsNotExist(err))
}

func TestModelProvider_DefaultsExtension(t *testing.T) {
	custom := new(testutil.MockDetector)
	loader := new(testutil.MockDetectorLoader)
	p := NewModelProvider(nil, loader, t.TempDir())

	loader.On("Load", mock.Anything, mock.AnythingOfType("string")).Return(custom, nil)
	custom.On("Close").Return(nil)

	active, err := p.Resolve(context.Background(), upload("weights", "x"))
	require.NoError(t, err)
	defer p.Dispose(active)
	assert.Equal(t, ".onnx", filepath.Ext(active.ArtifactPath()))
}

func TestModelProvider_UniqueArtifacts(t *testing.T) {
	loader := new(testutil.MockDetectorLoader)
	p := NewModelProvider(nil, loader, t.TempDir())

	custom := new(testutil.MockDetector)
	custom.On("Close").Return(nil)
	loader.On("Load", mock.Anything, mock.AnythingOfType("string")).Return(custom, nil)

	a, err := p.Resolve(context.Background(), upload("same.pt", "a"))
	require.NoError(t, err)
	b, err := p.Resolve(context.Background(), upload("same.pt", "b"))
	require.NoError(t, err)
	assert.NotEqual(t, a.ArtifactPath(), b.ArtifactPath())

	p.Dispose(a)
	p.Dispose(b)
}

func TestModelProvider_LoadFailure(t *testing.T) {
	loader := new(testutil.MockDetectorLoader)
	p := NewModelProvider(new(testutil.MockDetector), loader, t.TempDir())

	loader.On("Load", mock.Anything, mock.AnythingOfType("string")).Return(nil, errors.New("not a yolo model"))

	active, err := p.Resolve(context.Background(), upload("bad.pt", "garbage"))
	assert.ErrorIs(t, err, domain.ErrModelLoadFailure)
	assert.Contains(t, err.Error(), "not a yolo model")
	require.NotNil(t, active)

	path := active.ArtifactPath()
	_, statErr := os.Stat(path)
	require.NoError(t, statErr)

	p.Dispose(active)
	_, statErr = os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestModelProvider_MissingTempDir(t *testing.T) {
	loader := new(testutil.MockDetectorLoader)
	p := NewModelProvider(nil, loader, filepath.Join(t.TempDir(), "does-not-exist"))

	active, err := p.Resolve(context.Background(), upload("m.pt", "x"))
	assert.Nil(t, active)
	assert.ErrorIs(t, err, domain.ErrModelLoadFailure)
	loader.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
}

func TestModelProvider_DisposeSurvivesClosePanic(t *testing.T) {
	custom := new(testutil.MockDetector)
	loader := new(testutil.MockDetectorLoader)
	p := NewModelProvider(nil, loader, t.TempDir())

	loader.On("Load", mock.Anything, mock.AnythingOfType("string")).Return(custom, nil)
	custom.On("Close").Run(func(mock.Arguments) { panic("boom") }).Return(nil)

	active, err := p.Resolve(context.Background(), upload("m.pt", "x"))
	require.NoError(t, err)

	assert.NotPanics(t, func() { p.Dispose(active) })
	_, err = os.Stat(active.ArtifactPath())
	assert.True(t, os.IsNotExist(err))
}

func TestModelProvider_DisposeNil(t *testing.T) {
	p := NewModelProvider(nil, nil, "")
	assert.NotPanics(t, func() { p.Dispose(nil) })
}
