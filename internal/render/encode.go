package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
)

// Encoder composes layer stacks into frames and encodes them as PNG.
type Encoder struct {
	background color.Color
	bufferPool sync.Pool

	mu     sync.Mutex
	frames map[image.Point]*sync.Pool
}

// NewEncoder returns an encoder painting frames over background. A nil
// background leaves frames transparent.
func NewEncoder(background color.Color) *Encoder {
	return &Encoder{
		background: background,
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 32*1024))
			},
		},
		frames: make(map[image.Point]*sync.Pool),
	}
}

func (e *Encoder) framePool(size image.Point) *sync.Pool {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.frames[size]
	if !ok {
		p = &sync.Pool{
			New: func() interface{} {
				return image.NewRGBA(image.Rectangle{Max: size})
			},
		}
		e.frames[size] = p
	}
	return p
}

// EncodeLayers draws layers bottom to top over the background and returns
// the PNG bytes.
func (e *Encoder) EncodeLayers(layers ...*Canvas) ([]byte, error) {
	if len(layers) == 0 {
		return e.Empty(1, 1)
	}
	w, h := layers[0].Size()
	size := image.Pt(w, h)

	// Get frame from pool
	pool := e.framePool(size)
	frame := pool.Get().(*image.RGBA)
	defer pool.Put(frame)

	e.compose(frame, layers)
	return e.Encode(frame)
}

// Compose draws layers bottom to top over the background into a new image.
func (e *Encoder) Compose(layers ...*Canvas) *image.RGBA {
	if len(layers) == 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	w, h := layers[0].Size()
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	e.compose(frame, layers)
	return frame
}

func (e *Encoder) compose(frame *image.RGBA, layers []*Canvas) {
	if e.background != nil {
		draw.Draw(frame, frame.Rect, image.NewUniform(e.background), image.Point{}, draw.Src)
	} else {
		draw.Draw(frame, frame.Rect, image.Transparent, image.Point{}, draw.Src)
	}
	for _, l := range layers {
		draw.Draw(frame, frame.Rect, l.Image(), image.Point{}, draw.Over)
	}
}

// Encode returns img as PNG bytes.
func (e *Encoder) Encode(img image.Image) ([]byte, error) {
	buf := e.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		e.bufferPool.Put(buf)
	}()

	// Use fast PNG encoder
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, img); err != nil {
		return nil, err
	}

	// Copy buffer contents (buffer will be reused)
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// Empty returns a transparent frame of the given size.
func (e *Encoder) Empty(width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	return e.Encode(img)
}
