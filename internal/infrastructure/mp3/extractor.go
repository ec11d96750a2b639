package mp3

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/andreyxaxa/Resource-Service/internal/entity"
	"github.com/andreyxaxa/Resource-Service/pkg/types/errs"
	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract reads ID3 tags and sums frame durations. Missing tags give empty fields,
// an undecodable stream is errs.ErrInvalidMp3.
func (e *Extractor) Extract(data []byte) (*entity.SongMetadata, error) {
	md := &entity.SongMetadata{}

	m, err := tag.ReadFrom(bytes.NewReader(data))
	switch {
	case err == nil:
		md.Name = strings.TrimSpace(m.Title())
		md.Artist = strings.TrimSpace(m.Artist())
		md.Album = strings.TrimSpace(m.Album())
		if m.Year() > 0 {
			md.Year = strconv.Itoa(m.Year())
		}
	case errors.Is(err, tag.ErrNoTagsFound):
	default:
		return nil, fmt.Errorf("Extractor - Extract - tag.ReadFrom: %w",
			errs.NewInputError(errs.ErrInvalidMp3, "MP3 metadata extraction failed"))
	}

	duration, err := decodeDuration(data)
	if err != nil {
		return nil, fmt.Errorf("Extractor - Extract - decodeDuration: %w",
			errs.NewInputError(errs.ErrInvalidMp3, "MP3 metadata extraction failed"))
	}
	md.Duration = formatDuration(duration)

	return md, nil
}

func decodeDuration(data []byte) (time.Duration, error) {
	d := mp3.NewDecoder(bytes.NewReader(data))

	var (
		f       mp3.Frame
		skipped int
		total   time.Duration
		frames  int
	)

	for {
		err := d.Decode(&f, &skipped)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}

			return 0, err
		}

		total += f.Duration()
		frames++
	}

	if frames == 0 {
		return 0, errors.New("no mpeg frames found")
	}

	return total, nil
}

// mm:ss, minutes are not capped at 59.
func formatDuration(d time.Duration) string {
	seconds := int(d / time.Second)

	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
