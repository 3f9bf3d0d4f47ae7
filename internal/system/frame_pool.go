package system

import (
	"image"
	"sync"
)

// framePool recycles RGBA overlay buffers per canvas size so the render
// loop and the offline frame writer stop churning the garbage collector.
type framePool struct {
	pools map[string]*sync.Pool
	mu    sync.RWMutex
}

var frames = &framePool{pools: make(map[string]*sync.Pool)}

// GetFrame returns a zeroed overlay buffer of the given size, reusing a
// pooled one when available.
func GetFrame(w, h int) *image.RGBA {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := frames.get(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0
	}
	return img
}

// PutFrame hands a buffer back for reuse. Passing nil is a no-op.
func PutFrame(img *image.RGBA) {
	frames.put(img)
}

func (p *framePool) get(rect image.Rectangle) *image.RGBA {
	key := rect.String()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		pool, exists = p.pools[key]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return image.NewRGBA(rect)
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

func (p *framePool) put(img *image.RGBA) {
	if img == nil {
		return
	}
	key := img.Rect.String()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
