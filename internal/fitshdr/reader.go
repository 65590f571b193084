package fitshdr

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// HDU holds the decoded header of one header-data unit.
type HDU struct {
	Index int
	Name  string
	cards map[string]Card
	keys  []string
}

// Card returns the card for key, case-insensitively.
func (h *HDU) Card(key string) (Card, bool) {
	c, ok := h.cards[strings.ToUpper(strings.TrimSpace(key))]
	return c, ok
}

// Keys returns the header keys in file order.
func (h *HDU) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

func (h *HDU) intCard(key string) (int64, bool) {
	c, ok := h.Card(key)
	if !ok {
		return 0, false
	}
	return c.Value.Int()
}

// dataSize is the padded byte length of the data unit following this header.
func (h *HDU) dataSize() (int64, error) {
	naxis, _ := h.intCard("NAXIS")
	if naxis <= 0 {
		return 0, nil
	}
	bitpix, ok := h.intCard("BITPIX")
	if !ok {
		return 0, fmt.Errorf("HDU %d: missing BITPIX", h.Index)
	}
	elems := int64(1)
	for i := int64(1); i <= naxis; i++ {
		n, ok := h.intCard("NAXIS" + strconv.FormatInt(i, 10))
		if !ok {
			return 0, fmt.Errorf("HDU %d: missing NAXIS%d", h.Index, i)
		}
		elems *= n
	}
	pcount, _ := h.intCard("PCOUNT")
	gcount, ok := h.intCard("GCOUNT")
	if !ok {
		gcount = 1
	}
	if bitpix < 0 {
		bitpix = -bitpix
	}
	size := bitpix / 8 * gcount * (pcount + elems)
	if rem := size % blockSize; rem != 0 {
		size += blockSize - rem
	}
	return size, nil
}

// File is the set of headers read from one FITS file.
// It implements ftmgmt.HeaderStore.
type File struct {
	Path string
	HDUs []*HDU
}

// Read decodes every header in r, skipping data units.
func Read(r io.Reader) (*File, error) {
	br := bufio.NewReaderSize(r, blockSize*4)
	f := &File{}
	block := make([]byte, blockSize)

	for index := 0; ; index++ {
		hdu, err := readHeader(br, block, index)
		if errors.Is(err, io.EOF) {
			if index == 0 {
				return nil, errors.New("not a FITS file: empty")
			}
			return f, nil
		}
		if err != nil {
			return nil, err
		}
		f.HDUs = append(f.HDUs, hdu)

		size, err := hdu.dataSize()
		if err != nil {
			return nil, err
		}
		if _, err := io.CopyN(io.Discard, br, size); err != nil {
			if errors.Is(err, io.EOF) {
				return f, nil
			}
			return nil, fmt.Errorf("HDU %d: reading data: %w", index, err)
		}
	}
}

func readHeader(br *bufio.Reader, block []byte, index int) (*HDU, error) {
	hdu := &HDU{Index: index, cards: make(map[string]Card)}
	var pending *Card

	for first := true; ; first = false {
		if _, err := io.ReadFull(br, block); err != nil {
			if first && (errors.Is(err, io.EOF) || (index > 0 && isPadding(err))) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("HDU %d: truncated header: %w", index, err)
		}
		if first && index == 0 && !bytes.HasPrefix(block, []byte("SIMPLE  =")) {
			return nil, errors.New("not a FITS file: missing SIMPLE card")
		}
		if first && index > 0 && !bytes.HasPrefix(block, []byte("XTENSION=")) {
			// Trailing padding or garbage after the last HDU.
			return nil, io.EOF
		}

		for off := 0; off < blockSize; off += cardSize {
			raw := string(block[off : off+cardSize])
			key := strings.TrimSpace(raw[:8])
			if key == "END" {
				hdu.finish(pending)
				return hdu, nil
			}
			if key == "CONTINUE" && pending != nil {
				pending.appendContinue(raw[8:])
				continue
			}
			hdu.finish(pending)
			pending = nil
			if card, ok := parseCard(raw); ok {
				c := card
				pending = &c
			}
		}
	}
}

func isPadding(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// finish records a completed card; the first occurrence of a key wins.
func (h *HDU) finish(c *Card) {
	if c == nil {
		return
	}
	key := strings.ToUpper(c.Key)
	if _, dup := h.cards[key]; dup {
		return
	}
	h.cards[key] = *c
	h.keys = append(h.keys, key)
	if key == "EXTNAME" {
		h.Name = strings.TrimSpace(c.Value.String())
	}
}

// appendContinue joins a CONTINUE card onto a long string value.
func (c *Card) appendContinue(field string) {
	s := c.Value.String()
	if c.Value.Kind() != ftmgmt.KindString || !strings.HasSuffix(s, "&") {
		return
	}
	next := decodeValue(Card{}, field)
	c.Value = ftmgmt.StringValue(strings.TrimSuffix(s, "&") + next.Value.String())
	c.Width = len(c.Value.String())
	if next.Comment != "" {
		c.Comment = next.Comment
	}
}

// Open reads the headers of the FITS file at path. Files ending in .gz or
// starting with the gzip magic number are decompressed.
func Open(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ftmgmt.ErrFileNotFound, path)
		}
		return nil, err
	}
	defer fh.Close()

	br := bufio.NewReader(fh)
	var r io.Reader = br
	if magic, _ := br.Peek(2); len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	f, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Opener implements ftmgmt.HeaderOpener for FITS files on the local filesystem.
type Opener struct{}

// Open implements ftmgmt.HeaderOpener.
func (Opener) Open(path string) (ftmgmt.HeaderStore, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Unit finds an HDU by name or index.
func (f *File) Unit(name string) (*HDU, error) {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, "primary") && len(f.HDUs) > 0 {
		return f.HDUs[0], nil
	}
	for _, h := range f.HDUs {
		if h.Name != "" && strings.EqualFold(h.Name, name) {
			return h, nil
		}
	}
	if i, err := strconv.Atoi(name); err == nil && i >= 0 && i < len(f.HDUs) {
		return f.HDUs[i], nil
	}
	return nil, fmt.Errorf("%w: %s in %s", ftmgmt.ErrUnitNotFound, name, f.Path)
}

// Value implements ftmgmt.HeaderStore.
func (f *File) Value(unit, key string) (ftmgmt.Value, error) {
	c, err := f.card(unit, key)
	if err != nil {
		return ftmgmt.Value{}, err
	}
	return c.Value, nil
}

// Extra implements ftmgmt.HeaderStore.
func (f *File) Extra(unit, key string) (ftmgmt.HeaderExtra, error) {
	c, err := f.card(unit, key)
	if err != nil {
		return ftmgmt.HeaderExtra{}, err
	}
	return ftmgmt.HeaderExtra{Type: c.Value.Kind(), Width: c.Width, Comment: c.Comment}, nil
}

func (f *File) card(unit, key string) (Card, error) {
	h, err := f.Unit(unit)
	if err != nil {
		return Card{}, err
	}
	c, ok := h.Card(key)
	if !ok {
		return Card{}, fmt.Errorf("%w: %s in %s header", ftmgmt.ErrKeyNotFound, key, unit)
	}
	return c, nil
}

// Units implements ftmgmt.HeaderStore. Unnamed extensions are listed by index.
func (f *File) Units() []string {
	out := make([]string, len(f.HDUs))
	for i, h := range f.HDUs {
		switch {
		case i == 0:
			out[i] = "primary"
		case h.Name != "":
			out[i] = h.Name
		default:
			out[i] = strconv.Itoa(i)
		}
	}
	return out
}

// Close implements ftmgmt.HeaderStore. Headers are read eagerly, so the
// underlying file is already closed.
func (f *File) Close() error {
	return nil
}
