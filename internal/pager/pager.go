package pager

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/kmowery/tinytable/internal/storage"
)

// ErrTableFull is returned when the pager has handed out every page the
// table is allowed to hold.
var ErrTableFull = errors.New("table is full")

// Pager owns the database file and the resident page buffers. Pages are
// materialized on demand and written back only when flushed.
type Pager struct {
	file       *os.File
	fileLength int64
	pageCount  uint32
	pages      [storage.TableMaxPages][]byte
}

// Open opens the database file at path, creating it if absent. The file
// length must be a whole number of pages.
func Open(path string) (*Pager, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open database file")
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, "unable to stat database file")
	}

	if info.Size()%storage.PageSize != 0 {
		_ = file.Close()
		return nil, errors.Errorf("db file is not a whole number of pages (%d bytes), corrupt file", info.Size())
	}

	return &Pager{
		file:       file,
		fileLength: info.Size(),
		pageCount:  uint32(info.Size() / storage.PageSize),
	}, nil
}

// PageCount returns the number of pages the pager has handed out,
// resident or not.
func (p *Pager) PageCount() uint32 {
	return p.pageCount
}

// Page returns the buffer for pageNum, reading it from disk on first
// access. Pages past the end of the file start out zeroed. Requests at or
// beyond TableMaxPages are programmer errors.
func (p *Pager) Page(pageNum uint32) ([]byte, error) {
	if pageNum >= storage.TableMaxPages {
		panic(fmt.Sprintf("pager: tried to fetch page number out of bounds: %d >= %d", pageNum, storage.TableMaxPages))
	}

	if p.pages[pageNum] != nil {
		return p.pages[pageNum], nil
	}

	buf := make([]byte, storage.PageSize)

	// Round up for a trailing partial page at a file growth boundary.
	pagesOnDisk := uint32(p.fileLength / storage.PageSize)
	if p.fileLength%storage.PageSize != 0 {
		pagesOnDisk++
	}

	if pageNum < pagesOnDisk {
		if _, err := p.file.ReadAt(buf, int64(pageNum)*storage.PageSize); err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, errors.Wrapf(err, "error reading page %d", pageNum)
		}
	}

	p.pages[pageNum] = buf

	if pageNum >= p.pageCount {
		p.pageCount = pageNum + 1
	}

	return buf, nil
}

// UnusedPageNum hands out the next page number. There is no free list;
// page numbers are never reused.
func (p *Pager) UnusedPageNum() (uint32, error) {
	if p.pageCount >= storage.TableMaxPages {
		return 0, ErrTableFull
	}

	unused := p.pageCount
	p.pageCount++
	return unused, nil
}

// Flush writes exactly one full page back to disk. Flushing a page that
// was never materialized is a programmer error.
func (p *Pager) Flush(pageNum uint32) error {
	if p.pages[pageNum] == nil {
		panic(fmt.Sprintf("pager: tried to flush null page %d", pageNum))
	}

	if _, err := p.file.WriteAt(p.pages[pageNum], int64(pageNum)*storage.PageSize); err != nil {
		return errors.Wrapf(err, "error writing page %d", pageNum)
	}

	return nil
}

// Close flushes every resident page and closes the file.
func (p *Pager) Close() error {
	for i := uint32(0); i < p.pageCount; i++ {
		if p.pages[i] == nil {
			continue
		}

		if err := p.Flush(i); err != nil {
			_ = p.file.Close()
			return err
		}

		p.pages[i] = nil
	}

	if err := p.file.Close(); err != nil {
		return errors.Wrap(err, "error closing the db file")
	}

	return nil
}
