package fileclient

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

const progressThrottle = 120 * time.Millisecond

// transferBar рисует индикатор передачи байтов. nil-значение ничего не делает,
// так клиент без WithProgress обходится без проверок на каждом шаге.
type transferBar struct {
	out  io.Writer
	bar  *progressbar.ProgressBar
	done bool
}

// newBar создаёт индикатор; total < 0 означает неизвестный размер (спиннер).
func (cl *Client) newBar(desc string, total int64) *transferBar {
	if cl.progress == nil {
		return nil
	}

	return &transferBar{
		out: cl.progress,
		bar: progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(cl.progress),
			progressbar.OptionSetDescription(desc),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(progressThrottle),
			progressbar.OptionSpinnerType(14),
		),
	}
}

// reader считает прочитанные байты, сохраняя Close исходного потока.
func (b *transferBar) reader(r io.Reader) io.Reader {
	if b == nil {
		return r
	}
	c, _ := r.(io.Closer)
	return teeReadCloser{Reader: io.TeeReader(r, b.bar), closer: c}
}

func (b *transferBar) writer(w io.Writer) io.Writer {
	if b == nil {
		return w
	}
	return io.MultiWriter(w, b.bar)
}

// Finish отмечает успешное завершение передачи.
func (b *transferBar) Finish() {
	if b == nil || b.done {
		return
	}
	b.done = true
	_ = b.bar.Finish()
	fmt.Fprintln(b.out)
}

// Close останавливает индикатор в текущем состоянии, если Finish не был вызван.
func (b *transferBar) Close() {
	if b == nil || b.done {
		return
	}
	b.done = true
	_ = b.bar.Exit()
	fmt.Fprintln(b.out)
}

type teeReadCloser struct {
	io.Reader
	closer io.Closer
}

func (t teeReadCloser) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}
