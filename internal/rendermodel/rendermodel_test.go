package rendermodel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/terrapage/terrapage/internal/layer"
	"github.com/terrapage/terrapage/internal/pager"
	"github.com/terrapage/terrapage/internal/profile"
	"github.com/terrapage/terrapage/internal/raster"
	"github.com/terrapage/terrapage/internal/spatial"
	"github.com/terrapage/terrapage/internal/status"
)

type fakeGraphicsContext struct {
	mu             sync.Mutex
	compiled       []BindCommand
	disposed       []any
	frameRequested int
}

func (c *fakeGraphicsContext) Compile(bind BindCommand) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.compiled = append(c.compiled, bind)
}

func (c *fakeGraphicsContext) Dispose(old any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = append(c.disposed, old)
}

// OnNextUpdate runs fn immediately, standing in for the render thread
// draining its deferred-update queue on the next frame.
func (c *fakeGraphicsContext) OnNextUpdate(fn func(), priority float64) {
	fn()
}

func (c *fakeGraphicsContext) RequestFrame() {
	c.mu.Lock()
	c.frameRequested++
	c.mu.Unlock()
}

func (c *fakeGraphicsContext) WrapImage(image *raster.GeoImage) (TextureHandle, error) {
	return image, nil
}

func (c *fakeGraphicsContext) compiledCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.compiled)
}

func (c *fakeGraphicsContext) disposedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.disposed)
}

type staticColorSource struct{}

func (staticColorSource) GetImage(ctx context.Context, key profile.TileKey) (*raster.GeoImage, error) {
	img := raster.NewImage(raster.R8G8B8A8Unorm, 2, 2)
	img.Set(0, 0, 0.2, 0.4, 0.6, 1)
	return &raster.GeoImage{Image: img, Extent: key.Extent()}, nil
}

func newColorMap(t *testing.T) (*layer.Map, profile.Profile) {
	t.Helper()
	p := profile.MustWellKnown("global-geodetic")
	m := layer.NewMap()
	l := layer.NewImageLayer(layer.NewBase("base", "base", layer.KindImage), p, 2, 0, 10, true, nil, staticColorSource{})
	m.AddImageLayer(l)
	return m, p
}

func TestTileNodeInheritFromComposesScaleBias(t *testing.T) {
	p := profile.MustWellKnown("global-geodetic")
	root := NewTileNode(p.RootKeys()[0])
	root.setRenderModel(RenderModel{
		Color: TextureSlot{Handle: "root-color", Matrix: spatial.Identity3()},
	})

	child := root.NewChild(0)
	require.Equal(t, "root-color", child.RenderModel().Color.Handle)
	require.Equal(t, root.Key.CreateChildKey(0).ScaleBiasMatrix(), child.RenderModel().Color.Matrix)
	require.Equal(t, child.Key.Extent(), child.Bounds())
}

func TestUpdaterComposesColorAndCompiles(t *testing.T) {
	m, p := newColorMap(t)
	ctx := &fakeGraphicsContext{}
	upd := NewUpdater(ctx)

	pg := pager.New(context.Background(), m, pager.Options{
		OnTileReady: upd.OnTileReady,
	})
	defer pg.Close()

	root := p.RootKeys()[0]
	pg.Ping(root, 100.0)

	require.Eventually(t, func() bool {
		n, ok := upd.Node(root)
		return ok && n.RenderModel().Color.Handle != nil
	}, 2*time.Second, 5*time.Millisecond)

	require.Greater(t, ctx.compiledCount(), 0)
	require.Greater(t, ctx.frameRequested, 0)
}

type rootOnlyColorSource struct{ root profile.TileKey }

func (s rootOnlyColorSource) GetImage(ctx context.Context, key profile.TileKey) (*raster.GeoImage, error) {
	if !key.Equal(s.root) {
		return nil, status.New(status.NotFound, "no tile %s", key)
	}
	img := raster.NewImage(raster.R8G8B8A8Unorm, 2, 2)
	img.Set(0, 0, 0.2, 0.4, 0.6, 1)
	return &raster.GeoImage{Image: img, Extent: key.Extent()}, nil
}

func TestUpdaterAncestorFallbackCarriesNonIdentityMatrix(t *testing.T) {
	p := profile.MustWellKnown("global-geodetic")
	root := p.RootKeys()[0]

	m := layer.NewMap()
	l := layer.NewImageLayer(layer.NewBase("base", "base", layer.KindImage), p, 2, 0, 10, true, nil, rootOnlyColorSource{root: root})
	m.AddImageLayer(l)

	ctx := &fakeGraphicsContext{}
	upd := NewUpdater(ctx)

	pg := pager.New(context.Background(), m, pager.Options{
		OnTileReady: upd.OnTileReady,
	})
	defer pg.Close()

	child := root.CreateChildKey(0)
	pg.Ping(child, 100.0)

	require.Eventually(t, func() bool {
		n, ok := upd.Node(child)
		return ok && n.RenderModel().Color.Handle != nil
	}, 2*time.Second, 5*time.Millisecond)

	n, _ := upd.Node(child)
	require.False(t, n.RenderModel().Color.Matrix.Identity())
	require.InDelta(t, 0.5, n.RenderModel().Color.Matrix.At(0, 0), 1e-9)
}

func TestUpdaterPlaceholderUsedForRootWithNoColor(t *testing.T) {
	p := profile.MustWellKnown("global-geodetic")
	m := layer.NewMap() // no layers at all

	ctx := &fakeGraphicsContext{}
	upd := NewUpdater(ctx)

	pg := pager.New(context.Background(), m, pager.Options{
		OnTileReady: upd.OnTileReady,
	})
	defer pg.Close()

	root := p.RootKeys()[0]
	pg.Ping(root, 100.0)

	require.Eventually(t, func() bool {
		n, ok := upd.Node(root)
		return ok && n.RenderModel().Color.Handle != nil
	}, 2*time.Second, 5*time.Millisecond)

	n, _ := upd.Node(root)
	img, ok := n.RenderModel().Color.Handle.(*raster.GeoImage)
	require.True(t, ok)
	require.Equal(t, raster.R8G8B8A8Srgb, img.Image.Format())
	require.Equal(t, ctx.compiledCount() > 0, true)
}

func TestUpdaterOnTileEvictedDisposesHandles(t *testing.T) {
	m, p := newColorMap(t)
	ctx := &fakeGraphicsContext{}
	upd := NewUpdater(ctx)

	pg := pager.New(context.Background(), m, pager.Options{
		MaxResident:   2,
		OnTileReady:   upd.OnTileReady,
		OnTileEvicted: upd.OnTileEvicted,
	})
	defer pg.Close()

	root := p.RootKeys()[0]
	a := root.CreateChildKey(0)
	b := root.CreateChildKey(1)
	c := root.CreateChildKey(2)

	pg.Ping(a, 1)
	pg.Ping(b, 1)
	require.Eventually(t, func() bool {
		na, oka := upd.Node(a)
		nb, okb := upd.Node(b)
		return oka && okb && na.RenderModel().Color.Handle != nil && nb.RenderModel().Color.Handle != nil
	}, 2*time.Second, 5*time.Millisecond)

	pg.Ping(c, 1) // evicts a

	require.Eventually(t, func() bool {
		_, ok := upd.Node(a)
		return !ok
	}, 2*time.Second, 5*time.Millisecond)

	require.Greater(t, ctx.disposedCount(), 0)
}
