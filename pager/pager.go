// Package pager is the fixed-capacity page cache that sits between the
// B+ tree in package storage and a single on-disk file. It knows
// nothing about node formats; it caches raw PAGE_SIZE-byte pages,
// loads them lazily on first access, and writes dirty pages back on
// flush.
package pager

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// TableMaxPages bounds both the in-memory cache and the file: no
	// more than this many pages will ever be allocated for one table.
	TableMaxPages = 100
	PageSize      = 4096
)

// ErrTableFull is returned by AllocatePage once TableMaxPages have
// been handed out. There is no free list and pages are never reused,
// so this is permanent for the life of the Pager.
var ErrTableFull = errors.New("pager: table full")

// ErrPageOutOfBounds is returned by GetPage for a page number outside
// [0, TableMaxPages) or beyond the pages the file currently holds.
var ErrPageOutOfBounds = errors.New("pager: page out of bounds")

type Page struct {
	Data        [PageSize]byte
	writeOffset uint32
	Pager       *Pager
	PageNum     uint32
	Dirty       bool
}

type Pager struct {
	File     *os.File
	Pages    []*Page
	NumPages int
}

func (p *Pager) FileSize() (int64, error) {
	fi, err := p.File.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// OpenPager opens the file, computes how many pages it currently has,
// and allocates the slice — _without_ reading every page.
func OpenPager(path string) (*Pager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	fileSize := fi.Size()
	numPages := int(fileSize / PageSize)

	p := &Pager{
		File:     f,
		Pages:    make([]*Page, numPages),
		NumPages: numPages,
	}
	return p, nil
}

// loadPageFromDisk handles the raw seek+read and returns a fresh Page.
func (p *Pager) loadPageFromDisk(pageNum uint32) (*Page, error) {
	off := int64(pageNum) * PageSize
	if _, err := p.File.Seek(off, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek page %d: %w", pageNum, err)
	}
	pg := &Page{
		Pager:   p,
		PageNum: pageNum,
	}
	n, err := io.ReadFull(p.File, pg.Data[:])
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("read page %d: %w", pageNum, err)
	}
	pg.writeOffset = uint32(n)
	return pg, nil
}

func (p *Pager) GetPage(pageNum uint32) (*Page, error) {
	if pageNum >= TableMaxPages {
		return nil, fmt.Errorf("GetPage: page %d out of bounds (max %d): %w", pageNum, TableMaxPages, ErrPageOutOfBounds)
	}
	if pageNum >= uint32(p.NumPages) {
		return nil, fmt.Errorf("GetPage: page %d beyond EOF (%d pages): %w", pageNum, p.NumPages, ErrPageOutOfBounds)
	}
	// if not yet in cache, pull it in
	if p.Pages[pageNum] == nil {
		pg, err := p.loadPageFromDisk(pageNum)
		if err != nil {
			return nil, err
		}
		p.Pages[pageNum] = pg
	}
	return p.Pages[pageNum], nil
}

func (p *Pager) FlushPage(pgNo uint32) error {
	pg := p.Pages[pgNo]
	if pg == nil || !pg.Dirty {
		return nil
	}
	off := int64(pgNo) * PageSize
	if _, err := p.File.Seek(off, io.SeekStart); err != nil {
		return err
	}
	if _, err := p.File.Write(pg.Data[:]); err != nil {
		return err
	}
	pg.Dirty = false
	return nil
}

func (p *Pager) AllocatePage() (uint32, error) {
	np := uint32(p.NumPages)
	if np >= TableMaxPages {
		return 0, ErrTableFull
	}
	pg := &Page{
		Pager:   p,
		PageNum: np,
		Dirty:   true, // mark for writing
	}
	p.Pages = append(p.Pages, pg)
	p.NumPages++
	return np, nil
}

func (p *Pager) FlushAll() error {
	for i, pg := range p.Pages {
		if pg != nil && pg.Dirty {
			if err := p.FlushPage(uint32(i)); err != nil {
				return err
			}
			pg.Dirty = false
		}
	}
	return p.File.Sync()
}

func (p *Pager) Close() error {
	if err := p.FlushAll(); err != nil {
		return err
	}
	return p.File.Close()
}
