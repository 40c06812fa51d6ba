// Package layerio reads and writes sliced layers in a compact binary form.
//
// A file is a fixed header followed by one length-prefixed record per
// layer. All values are little endian. Toolpaths are not stored; they are
// rebuilt from the contours and hatches on decode.
package layerio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-restruct/restruct"

	"github.com/chazu/strata/pkg/contour"
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/hatch"
	"github.com/chazu/strata/pkg/slicer"
	"github.com/chazu/strata/pkg/toolpath"
)

// Version is the format revision written by Encode.
const Version = 1

var headerMagic = [4]byte{'S', 'T', 'R', 'L'}

// ErrBadMagic is returned when the input is not a layer file.
var ErrBadMagic = errors.New("layerio: bad magic")

// Header describes the job a layer file came from.
type Header struct {
	LayerThickness float64
	BaseAngle      float64
	AngleIncrement float64
	HatchSpacing   float64
	LayerCount     uint32
}

// HeaderFor fills a Header from a slicer configuration.
func HeaderFor(cfg slicer.Config, layers []slicer.Layer) Header {
	return Header{
		LayerThickness: cfg.LayerThickness,
		BaseAngle:      cfg.Hatch.BaseAngle,
		AngleIncrement: cfg.Hatch.AngleIncrement,
		HatchSpacing:   cfg.Hatch.Spacing,
		LayerCount:     uint32(len(layers)),
	}
}

type fileHeader struct {
	Magic          [4]byte // 0x00: "STRL"
	Version        uint16  // 0x04
	Reserved       uint16  // 0x06
	LayerThickness float64 // 0x08
	BaseAngle      float64 // 0x10
	AngleIncrement float64 // 0x18
	HatchSpacing   float64 // 0x20
	LayerCount     uint32  // 0x28
}

type pointRecord struct {
	X, Y float64
}

type loopRecord struct {
	Count  uint32        `struct:"sizeof=Points"`
	Points []pointRecord `struct:"sizefrom=Count"`
}

type offsetsRecord struct {
	Count uint32       `struct:"sizeof=Loops"`
	Loops []loopRecord `struct:"sizefrom=Count"`
}

type setRecord struct {
	RequestedOuter uint16
	RequestedInner uint16
	Outer          loopRecord
	InnerCount     uint32          `struct:"sizeof=Inners"`
	Inners         []loopRecord    `struct:"sizefrom=InnerCount"`
	OuterOffsets   offsetsRecord
	InnerOffCount  uint32          `struct:"sizeof=InnerOffsets"`
	InnerOffsets   []offsetsRecord `struct:"sizefrom=InnerOffCount"`
}

type hatchRecord struct {
	AX, AY   float64
	BX, BY   float64
	Line     int32
	Reversed uint8
}

type layerRecord struct {
	Index      uint32
	Z          float64
	ID         int64
	Angle      float64
	SetCount   uint32        `struct:"sizeof=Sets"`
	Sets       []setRecord   `struct:"sizefrom=SetCount"`
	HatchCount uint32        `struct:"sizeof=Hatches"`
	Hatches    []hatchRecord `struct:"sizefrom=HatchCount"`
}

// Encode writes h and layers to w. h.LayerCount is taken from layers.
func Encode(w io.Writer, h Header, layers []slicer.Layer) error {
	header := fileHeader{
		Magic:          headerMagic,
		Version:        Version,
		LayerThickness: h.LayerThickness,
		BaseAngle:      h.BaseAngle,
		AngleIncrement: h.AngleIncrement,
		HatchSpacing:   h.HatchSpacing,
		LayerCount:     uint32(len(layers)),
	}
	data, err := restruct.Pack(binary.LittleEndian, &header)
	if err != nil {
		return fmt.Errorf("layerio: pack header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}

	for _, l := range layers {
		rec := toLayerRecord(l)
		data, err := restruct.Pack(binary.LittleEndian, &rec)
		if err != nil {
			return fmt.Errorf("layerio: pack layer %d: %w", l.Index, err)
		}
		var size [4]byte
		binary.LittleEndian.PutUint32(size[:], uint32(len(data)))
		if _, err := w.Write(size[:]); err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a layer file. Each layer's toolpath is reassembled.
func Decode(r io.Reader) (Header, []slicer.Layer, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Header{}, nil, err
	}

	var header fileHeader
	headerSize, err := restruct.SizeOf(&header)
	if err != nil {
		return Header{}, nil, err
	}
	if len(raw) < headerSize {
		return Header{}, nil, fmt.Errorf("layerio: short header: %d bytes", len(raw))
	}
	if err := restruct.Unpack(raw[:headerSize], binary.LittleEndian, &header); err != nil {
		return Header{}, nil, fmt.Errorf("layerio: unpack header: %w", err)
	}
	if !bytes.Equal(header.Magic[:], headerMagic[:]) {
		return Header{}, nil, ErrBadMagic
	}
	if header.Version != Version {
		return Header{}, nil, fmt.Errorf("layerio: unsupported version %d", header.Version)
	}

	h := Header{
		LayerThickness: header.LayerThickness,
		BaseAngle:      header.BaseAngle,
		AngleIncrement: header.AngleIncrement,
		HatchSpacing:   header.HatchSpacing,
		LayerCount:     header.LayerCount,
	}

	raw = raw[headerSize:]
	layers := make([]slicer.Layer, 0, header.LayerCount)
	for i := uint32(0); i < header.LayerCount; i++ {
		if len(raw) < 4 {
			return h, nil, fmt.Errorf("layerio: layer %d: %w", i, io.ErrUnexpectedEOF)
		}
		size := binary.LittleEndian.Uint32(raw)
		raw = raw[4:]
		if uint64(len(raw)) < uint64(size) {
			return h, nil, fmt.Errorf("layerio: layer %d: %w", i, io.ErrUnexpectedEOF)
		}
		var rec layerRecord
		if err := restruct.Unpack(raw[:size], binary.LittleEndian, &rec); err != nil {
			return h, nil, fmt.Errorf("layerio: unpack layer %d: %w", i, err)
		}
		raw = raw[size:]
		layers = append(layers, fromLayerRecord(rec))
	}
	if len(raw) != 0 {
		return h, nil, fmt.Errorf("layerio: %d trailing bytes", len(raw))
	}
	return h, layers, nil
}

func toLoopRecord(l geom.Loop) loopRecord {
	rec := loopRecord{Points: make([]pointRecord, len(l))}
	for i, p := range l {
		rec.Points[i] = pointRecord{X: p.X, Y: p.Y}
	}
	return rec
}

func toOffsetsRecord(ls []geom.Loop) offsetsRecord {
	rec := offsetsRecord{Loops: make([]loopRecord, len(ls))}
	for i, l := range ls {
		rec.Loops[i] = toLoopRecord(l)
	}
	return rec
}

func toLayerRecord(l slicer.Layer) layerRecord {
	rec := layerRecord{
		Index:   uint32(l.Index),
		Z:       l.Z,
		ID:      l.ID,
		Angle:   l.Angle,
		Sets:    make([]setRecord, len(l.Contours)),
		Hatches: make([]hatchRecord, len(l.Hatches)),
	}
	for i, s := range l.Contours {
		sr := setRecord{
			RequestedOuter: uint16(s.RequestedOuter),
			RequestedInner: uint16(s.RequestedInner),
			Outer:          toLoopRecord(s.Outer),
			Inners:         make([]loopRecord, len(s.Inners)),
			OuterOffsets:   toOffsetsRecord(s.OuterOffsets),
			InnerOffsets:   make([]offsetsRecord, len(s.InnerOffsets)),
		}
		for j, h := range s.Inners {
			sr.Inners[j] = toLoopRecord(h)
		}
		for j, offs := range s.InnerOffsets {
			sr.InnerOffsets[j] = toOffsetsRecord(offs)
		}
		rec.Sets[i] = sr
	}
	for i, v := range l.Hatches {
		hr := hatchRecord{AX: v.A.X, AY: v.A.Y, BX: v.B.X, BY: v.B.Y, Line: int32(v.Line)}
		if v.Reversed {
			hr.Reversed = 1
		}
		rec.Hatches[i] = hr
	}
	return rec
}

func fromLoopRecord(rec loopRecord) geom.Loop {
	l := make(geom.Loop, len(rec.Points))
	for i, p := range rec.Points {
		l[i] = geom.Pt(p.X, p.Y)
	}
	return l
}

func fromOffsetsRecord(rec offsetsRecord) []geom.Loop {
	if len(rec.Loops) == 0 {
		return nil
	}
	ls := make([]geom.Loop, len(rec.Loops))
	for i, l := range rec.Loops {
		ls[i] = fromLoopRecord(l)
	}
	return ls
}

func fromLayerRecord(rec layerRecord) slicer.Layer {
	l := slicer.Layer{
		Index: int(rec.Index),
		Z:     rec.Z,
		ID:    rec.ID,
		Angle: rec.Angle,
	}
	for _, sr := range rec.Sets {
		s := contour.Set{
			Outer:          fromLoopRecord(sr.Outer),
			OuterOffsets:   fromOffsetsRecord(sr.OuterOffsets),
			RequestedOuter: int(sr.RequestedOuter),
			RequestedInner: int(sr.RequestedInner),
		}
		for _, h := range sr.Inners {
			s.Inners = append(s.Inners, fromLoopRecord(h))
		}
		for _, offs := range sr.InnerOffsets {
			s.InnerOffsets = append(s.InnerOffsets, fromOffsetsRecord(offs))
		}
		l.Contours = append(l.Contours, s)
	}
	for _, hr := range rec.Hatches {
		l.Hatches = append(l.Hatches, hatch.Vector{
			A:        geom.Pt(hr.AX, hr.AY),
			B:        geom.Pt(hr.BX, hr.BY),
			Line:     int(hr.Line),
			Reversed: hr.Reversed != 0,
		})
	}
	l.Toolpath = toolpath.Assemble(l.ID, l.Z, l.Contours, l.Hatches)
	return l
}
