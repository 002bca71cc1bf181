package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/emuka/emuka/pkg/audio"
	"github.com/emuka/emuka/pkg/emulator"
	"github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"
)

// The binary responses are Avro object container files
// with one record of the fixed schemas below.
const (
	AvroContentType = "avro/binary"

	ScreenSchema = `{
  "type": "record",
  "name": "ScreenData",
  "namespace": "emuka.api.v1",
  "fields": [
    {"name": "data", "type": "bytes"},
    {"name": "width", "type": "int"},
    {"name": "height", "type": "int"}
  ]
}`
	AudioSchema = `{
  "type": "record",
  "name": "AudioData",
  "namespace": "emuka.api.v1",
  "fields": [
    {"name": "data", "type": "bytes"}
  ]
}`
)

var (
	screenSchema = avro.MustParse(ScreenSchema)
	audioSchema  = avro.MustParse(AudioSchema)

	ErrNoRecord = errors.New("no record")
)

// ScreenRecord is a screen snapshot as RGBA bytes,
// an empty record means there is no frame.
type ScreenRecord struct {
	Data   []byte `avro:"data"`
	Width  int    `avro:"width"`
	Height int    `avro:"height"`
}

// AudioRecord is a chunk of interleaved little-endian int16 stereo samples.
type AudioRecord struct {
	Data []byte `avro:"data"`
}

func NewScreenRecord(s emulator.Maybe[emulator.ScreenData]) ScreenRecord {
	if !s.Ok {
		return ScreenRecord{Data: []byte{}}
	}
	return ScreenRecord{Data: s.Value.RGBA(), Width: s.Value.Width, Height: s.Value.Height}
}

func NewAudioRecord(samples audio.Samples) AudioRecord {
	return AudioRecord{Data: samples.Bytes()}
}

func (r AudioRecord) Samples() audio.Samples { return audio.SamplesFromBytes(r.Data) }

func EncodeScreen(w io.Writer, r ScreenRecord) error { return encode(w, screenSchema, r) }

func DecodeScreen(r io.Reader) (rec ScreenRecord, err error) {
	err = decode(r, &rec)
	return
}

func EncodeAudio(w io.Writer, r AudioRecord) error { return encode(w, audioSchema, r) }

func DecodeAudio(r io.Reader) (rec AudioRecord, err error) {
	err = decode(r, &rec)
	return
}

// MarshalAudio is EncodeAudio into a new buffer.
func MarshalAudio(r AudioRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeAudio(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(w io.Writer, schema avro.Schema, v any) error {
	enc, err := ocf.NewEncoder(schema.String(), w, ocf.WithCodec(ocf.Null))
	if err != nil {
		return fmt.Errorf("avro encoder: %w", err)
	}
	if err = enc.Encode(v); err != nil {
		return fmt.Errorf("avro encode: %w", err)
	}
	return enc.Close()
}

func decode(r io.Reader, v any) error {
	dec, err := ocf.NewDecoder(r)
	if err != nil {
		return fmt.Errorf("avro decoder: %w", err)
	}
	if !dec.HasNext() {
		if err = dec.Error(); err != nil {
			return err
		}
		return ErrNoRecord
	}
	if err = dec.Decode(v); err != nil {
		return fmt.Errorf("avro decode: %w", err)
	}
	return nil
}
