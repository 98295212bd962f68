package delivery

import (
	"io"

	"github.com/jtdct/sonora/internal/transcode"
	"github.com/jtdct/sonora/internal/zipstream"
)

// transcodePipeline adapts transcode.Stream to the Pipeline interface.
// It folds the pipe's io.EOF into a clean Done()==true rather than
// propagating it as an error, so an offset equal to the track's
// duration yields an empty audio body, not an error (spec §8 boundary
// behaviour).
type transcodePipeline struct {
	stream *transcode.Stream
	eof    bool
}

func (p *transcodePipeline) Next(buf []byte) (int, error) {
	if p.eof {
		return 0, nil
	}
	n, err := p.stream.ReadSome(buf)
	if err == io.EOF {
		p.eof = true
		return n, nil
	}
	return n, err
}
func (p *transcodePipeline) Done() bool { return p.eof }
func (p *transcodePipeline) Close() error { return p.stream.Close() }

// zipPipeline adapts zipstream.Zipper to the Pipeline interface.
type zipPipeline struct {
	zipper *zipstream.Zipper
}

func (p *zipPipeline) Next(buf []byte) (int, error) { return p.zipper.WriteSome(buf) }
func (p *zipPipeline) Done() bool                   { return p.zipper.IsComplete() }
func (p *zipPipeline) Close() error                 { return p.zipper.Close() }

// bytesPipeline serves an already-resolved in-memory byte slice (spec
// §4.9 common pattern applies to cover fetches too, even though the
// bytes are already fully available once the cache/resolver returns).
type bytesPipeline struct {
	data   []byte
	offset int
}

func (p *bytesPipeline) Next(buf []byte) (int, error) {
	n := copy(buf, p.data[p.offset:])
	p.offset += n
	return n, nil
}
func (p *bytesPipeline) Done() bool { return p.offset >= len(p.data) }
func (p *bytesPipeline) Close() error { return nil }
