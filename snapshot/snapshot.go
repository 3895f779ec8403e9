package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/vecseg"
	"github.com/hupe1980/vecseg/blobstore"
	"github.com/hupe1980/vecseg/column"
	"github.com/hupe1980/vecseg/memseg"
	"github.com/hupe1980/vecseg/schema"
)

// Snapshot format:
//
//	magic "VSEG" | version uint16 | codec uint8
//	block: schema
//	block: row ids
//	block: timestamps
//	block: one column per user field, in schema order
//	crc32 uint32 over everything before it
//
// Each block is self-framing: [UncompressedSize][CompressedSize][Data],
// compressed with the codec named in the header.

var magic = [4]byte{'V', 'S', 'E', 'G'}

const version uint16 = 1

// ErrChecksum is returned when a snapshot fails integrity verification.
var ErrChecksum = errors.New("snapshot checksum mismatch")

// Write serializes a segment's published rows.
func Write(w io.Writer, src vecseg.Storage, codec Codec) error {
	cw := newChecksumWriter(w)

	if _, err := cw.Write(magic[:]); err != nil {
		return err
	}
	if err := binary.Write(cw, binary.LittleEndian, version); err != nil {
		return err
	}
	if err := binary.Write(cw, binary.LittleEndian, uint8(codec)); err != nil {
		return err
	}

	coll := src.Schema()
	if err := writeBlock(cw, encodeSchema(coll), codec); err != nil {
		return err
	}
	if err := writeBlock(cw, encodeInt64s(src.RowIDs()), codec); err != nil {
		return err
	}
	if err := writeBlock(cw, encodeTimestamps(src.Timestamps()), codec); err != nil {
		return err
	}

	rows := src.RowCount()
	offsets := make([]int64, rows)
	for i := range offsets {
		offsets[i] = int64(i)
	}
	for _, fieldID := range coll.Fields() {
		data, err := src.BulkSubscript(fieldID, offsets)
		if err != nil {
			return err
		}
		payload, err := encodeColumn(data)
		if err != nil {
			return err
		}
		if err := writeBlock(cw, payload, codec); err != nil {
			return err
		}
	}

	// Checksum goes to the underlying writer; it covers itself otherwise.
	return binary.Write(w, binary.LittleEndian, cw.Sum())
}

// Read deserializes a snapshot into a fresh growing segment.
func Read(r io.Reader, id vecseg.SegmentID, visitor vecseg.PlanVisitor, optFns ...func(*memseg.Options)) (*memseg.Growing, error) {
	cr := newChecksumReader(r)

	var hdr [7]byte
	if _, err := io.ReadFull(cr, hdr[:]); err != nil {
		return nil, err
	}
	if !bytes.Equal(hdr[:4], magic[:]) {
		return nil, errors.New("not a segment snapshot")
	}
	if v := binary.LittleEndian.Uint16(hdr[4:6]); v != version {
		return nil, fmt.Errorf("unsupported snapshot version %d", v)
	}
	codec := Codec(hdr[6])

	schemaPayload, err := readBlock(cr, codec)
	if err != nil {
		return nil, err
	}
	coll, err := decodeSchema(schemaPayload)
	if err != nil {
		return nil, err
	}

	rowIDPayload, err := readBlock(cr, codec)
	if err != nil {
		return nil, err
	}
	rowIDs, err := decodeInt64s(rowIDPayload)
	if err != nil {
		return nil, err
	}

	tsPayload, err := readBlock(cr, codec)
	if err != nil {
		return nil, err
	}
	timestamps, err := decodeTimestamps(tsPayload)
	if err != nil {
		return nil, err
	}

	cols := make(map[schema.FieldID]*column.Data, coll.Len())
	for _, fieldID := range coll.Fields() {
		meta, _ := coll.Field(fieldID)
		payload, err := readBlock(cr, codec)
		if err != nil {
			return nil, err
		}
		data, err := decodeColumn(payload, meta)
		if err != nil {
			return nil, err
		}
		cols[fieldID] = data
	}

	sum := cr.Sum()
	var want uint32
	if err := binary.Read(r, binary.LittleEndian, &want); err != nil {
		return nil, err
	}
	if sum != want {
		return nil, ErrChecksum
	}

	g, err := memseg.NewGrowing(id, coll, visitor, optFns...)
	if err != nil {
		return nil, err
	}
	if err := g.Insert(rowIDs, timestamps, cols); err != nil {
		return nil, err
	}
	return g, nil
}

// Save writes a snapshot blob to a store.
func Save(ctx context.Context, store blobstore.Store, name string, src vecseg.Storage, codec Codec) error {
	var buf bytes.Buffer
	if err := Write(&buf, src, codec); err != nil {
		return err
	}
	return store.Put(ctx, name, buf.Bytes())
}

// Load reads a snapshot blob from a store into a fresh growing segment.
func Load(ctx context.Context, store blobstore.Store, name string, id vecseg.SegmentID, visitor vecseg.PlanVisitor, optFns ...func(*memseg.Options)) (*memseg.Growing, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return Read(bytes.NewReader(data), id, visitor, optFns...)
}

func writeBlock(w io.Writer, payload []byte, codec Codec) error {
	block, err := compressBlock(payload, codec)
	if err != nil {
		return err
	}
	_, err = w.Write(block)
	return err
}

func readBlock(r io.Reader, codec Codec) ([]byte, error) {
	var hdr [blockHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	uncompressedSize := binary.LittleEndian.Uint32(hdr[0:])
	compressedSize := binary.LittleEndian.Uint32(hdr[4:])

	n := compressedSize
	if n == 0 {
		n = uncompressedSize
	}
	block := make([]byte, blockHeaderSize+n)
	copy(block, hdr[:])
	if _, err := io.ReadFull(r, block[blockHeaderSize:]); err != nil {
		return nil, err
	}
	return decompressBlock(block, codec)
}

func encodeSchema(coll *schema.Collection) []byte {
	var buf bytes.Buffer
	writeUint32(&buf, uint32(coll.Len()))
	for _, fieldID := range coll.Fields() {
		meta, _ := coll.Field(fieldID)
		writeInt64(&buf, int64(meta.ID))
		writeString(&buf, meta.Name)
		buf.WriteByte(byte(meta.Type))
		buf.WriteByte(byte(meta.ElementType))
		writeUint32(&buf, uint32(meta.Dim))
		if meta.PrimaryKey {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}
	return buf.Bytes()
}

func decodeSchema(payload []byte) (*schema.Collection, error) {
	buf := bytes.NewReader(payload)
	count, err := readUint32(buf)
	if err != nil {
		return nil, err
	}

	fields := make([]schema.FieldMeta, 0, count)
	for i := uint32(0); i < count; i++ {
		id, err := readInt64(buf)
		if err != nil {
			return nil, err
		}
		name, err := readString(buf)
		if err != nil {
			return nil, err
		}
		typ, err := buf.ReadByte()
		if err != nil {
			return nil, err
		}
		elemType, err := buf.ReadByte()
		if err != nil {
			return nil, err
		}
		dim, err := readUint32(buf)
		if err != nil {
			return nil, err
		}
		pk, err := buf.ReadByte()
		if err != nil {
			return nil, err
		}
		fields = append(fields, schema.FieldMeta{
			ID:          schema.FieldID(id),
			Name:        name,
			Type:        schema.DataType(typ),
			ElementType: schema.DataType(elemType),
			Dim:         int(dim),
			PrimaryKey:  pk == 1,
		})
	}
	return schema.NewCollection(fields...)
}

func encodeInt64s(values []int64) []byte {
	var buf bytes.Buffer
	writeUint32(&buf, uint32(len(values)))
	for _, v := range values {
		writeInt64(&buf, v)
	}
	return buf.Bytes()
}

func decodeInt64s(payload []byte) ([]int64, error) {
	buf := bytes.NewReader(payload)
	count, err := readUint32(buf)
	if err != nil {
		return nil, err
	}
	out := make([]int64, count)
	for i := range out {
		if out[i], err = readInt64(buf); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func encodeTimestamps(values []vecseg.Timestamp) []byte {
	var buf bytes.Buffer
	writeUint32(&buf, uint32(len(values)))
	for _, v := range values {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v))
		buf.Write(b[:])
	}
	return buf.Bytes()
}

func decodeTimestamps(payload []byte) ([]vecseg.Timestamp, error) {
	buf := bytes.NewReader(payload)
	count, err := readUint32(buf)
	if err != nil {
		return nil, err
	}
	out := make([]vecseg.Timestamp, count)
	for i := range out {
		var b [8]byte
		if _, err := io.ReadFull(buf, b[:]); err != nil {
			return nil, err
		}
		out[i] = vecseg.Timestamp(binary.LittleEndian.Uint64(b[:]))
	}
	return out, nil
}

func encodeColumn(data *column.Data) ([]byte, error) {
	var buf bytes.Buffer
	switch data.Type {
	case schema.TypeBool:
		writeUint32(&buf, uint32(len(data.Bools)))
		for _, v := range data.Bools {
			if v {
				buf.WriteByte(1)
			} else {
				buf.WriteByte(0)
			}
		}
	case schema.TypeInt8, schema.TypeInt16, schema.TypeInt32, schema.TypeInt64:
		buf.Write(encodeInt64s(data.Int64s))
	case schema.TypeFloat, schema.TypeDouble:
		writeUint32(&buf, uint32(len(data.Float64s)))
		for _, v := range data.Float64s {
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], uint64(floatBits(v)))
			buf.Write(b[:])
		}
	case schema.TypeVarChar:
		writeUint32(&buf, uint32(len(data.Strings)))
		for _, v := range data.Strings {
			writeString(&buf, v)
		}
	case schema.TypeArray:
		writeUint32(&buf, uint32(len(data.Arrays)))
		for _, a := range data.Arrays {
			buf.WriteByte(byte(a.ElementType))
			if a.ElementType == schema.TypeVarChar {
				writeUint32(&buf, uint32(len(a.Strings)))
				for _, s := range a.Strings {
					writeString(&buf, s)
				}
			} else {
				buf.Write(encodeInt64s(a.Int64s))
			}
		}
	case schema.TypeFloatVector:
		writeUint32(&buf, uint32(len(data.Vectors)))
		for _, vec := range data.Vectors {
			writeUint32(&buf, uint32(len(vec)))
			for _, f := range vec {
				var b [4]byte
				binary.LittleEndian.PutUint32(b[:], float32Bits(f))
				buf.Write(b[:])
			}
		}
	default:
		return nil, fmt.Errorf("cannot snapshot %s column", data.Type)
	}
	return buf.Bytes(), nil
}

func decodeColumn(payload []byte, meta schema.FieldMeta) (*column.Data, error) {
	buf := bytes.NewReader(payload)
	data := &column.Data{
		Field:       meta.ID,
		Type:        meta.Type,
		ElementType: meta.ElementType,
	}

	switch meta.Type {
	case schema.TypeBool:
		count, err := readUint32(buf)
		if err != nil {
			return nil, err
		}
		data.Bools = make([]bool, count)
		for i := range data.Bools {
			b, err := buf.ReadByte()
			if err != nil {
				return nil, err
			}
			data.Bools[i] = b == 1
		}
	case schema.TypeInt8, schema.TypeInt16, schema.TypeInt32, schema.TypeInt64:
		rest := make([]byte, buf.Len())
		if _, err := io.ReadFull(buf, rest); err != nil {
			return nil, err
		}
		values, err := decodeInt64s(rest)
		if err != nil {
			return nil, err
		}
		data.Int64s = values
	case schema.TypeFloat, schema.TypeDouble:
		count, err := readUint32(buf)
		if err != nil {
			return nil, err
		}
		data.Float64s = make([]float64, count)
		for i := range data.Float64s {
			var b [8]byte
			if _, err := io.ReadFull(buf, b[:]); err != nil {
				return nil, err
			}
			data.Float64s[i] = floatFromBits(binary.LittleEndian.Uint64(b[:]))
		}
	case schema.TypeVarChar:
		count, err := readUint32(buf)
		if err != nil {
			return nil, err
		}
		data.Strings = make([]string, count)
		for i := range data.Strings {
			if data.Strings[i], err = readString(buf); err != nil {
				return nil, err
			}
		}
	case schema.TypeArray:
		count, err := readUint32(buf)
		if err != nil {
			return nil, err
		}
		data.Arrays = make([]column.Array, count)
		for i := range data.Arrays {
			elemType, err := buf.ReadByte()
			if err != nil {
				return nil, err
			}
			arr := column.Array{ElementType: schema.DataType(elemType)}
			if arr.ElementType == schema.TypeVarChar {
				n, err := readUint32(buf)
				if err != nil {
					return nil, err
				}
				arr.Strings = make([]string, n)
				for j := range arr.Strings {
					if arr.Strings[j], err = readString(buf); err != nil {
						return nil, err
					}
				}
			} else {
				n, err := readUint32(buf)
				if err != nil {
					return nil, err
				}
				arr.Int64s = make([]int64, n)
				for j := range arr.Int64s {
					if arr.Int64s[j], err = readInt64(buf); err != nil {
						return nil, err
					}
				}
			}
			data.Arrays[i] = arr
		}
	case schema.TypeFloatVector:
		count, err := readUint32(buf)
		if err != nil {
			return nil, err
		}
		data.Vectors = make([][]float32, count)
		for i := range data.Vectors {
			n, err := readUint32(buf)
			if err != nil {
				return nil, err
			}
			vec := make([]float32, n)
			for j := range vec {
				var b [4]byte
				if _, err := io.ReadFull(buf, b[:]); err != nil {
					return nil, err
				}
				vec[j] = float32FromBits(binary.LittleEndian.Uint32(b[:]))
			}
			data.Vectors[i] = vec
		}
	default:
		return nil, fmt.Errorf("cannot restore %s column", meta.Type)
	}
	return data, nil
}
