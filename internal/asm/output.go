package asm

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mileusna/conditional"
	"github.com/samber/lo"
)

// Serializer renders the unit's tables and batches to the host artifact
// format (C source fragments) through the Host capability interface. It is
// the stream's Sink: every flush becomes one apply-batch statement.
//
// The table output points are deferred: the statement position is reserved
// where the host asked for it, but the content is rendered only when the
// unit is finalized, after the tables have stopped growing.
type Serializer struct {
	host Host
}

// NewSerializer constructs a serializer emitting through host.
func NewSerializer(host Host) *Serializer {
	return &Serializer{host: host}
}

// ApplyBatch implements Sink. Arguments arrive pre-formatted as host
// expressions and are passed through verbatim.
func (z *Serializer) ApplyBatch(offset, length int, args []string) {
	tail := conditional.String(len(args) == 0, "", ", "+strings.Join(args, ", "))
	z.host.Line(fmt.Sprintf("ppc_apply(ctx, _ppc_stream + %d, %d, %d%s);", offset, length, len(args), tail))
}

// StreamOutputPoint schedules the rendering of the whole word/action array.
func (z *Serializer) StreamOutputPoint(s *Stream) {
	z.host.Deferred(func(w io.Writer) {
		fmt.Fprintf(w, "static const unsigned int _ppc_stream[%d] = {\n", s.Len())
		entries := s.Entries()
		for i := 0; i < len(entries); i += 8 {
			row := entries[i:min(i+8, len(entries))]
			cells := lo.Map(row, func(v uint32, _ int) string {
				return fmt.Sprintf("0x%08x,", v)
			})
			fmt.Fprintf(w, "\t%s\n", strings.Join(cells, " "))
		}
		fmt.Fprintf(w, "};\n")
	})
}

// GlobalEnumOutputPoint schedules the enum giving each global label its
// number.
func (z *Serializer) GlobalEnumOutputPoint(t *LabelTable) {
	z.host.Deferred(func(w io.Writer) {
		fmt.Fprintf(w, "enum {\n")
		for i, name := range t.Names() {
			fmt.Fprintf(w, "\t_L_%s = %d,\n", name, t.Base()+i)
		}
		fmt.Fprintf(w, "};\n")
	})
}

// GlobalNamesOutputPoint schedules the global label name table, indexed by
// label number minus the namespace base.
func (z *Serializer) GlobalNamesOutputPoint(t *LabelTable) {
	z.nameTable("_ppc_label_names", t)
}

// ExternNamesOutputPoint schedules the extern name table, indexed by extern
// number.
func (z *Serializer) ExternNamesOutputPoint(t *LabelTable) {
	z.nameTable("_ppc_extern_names", t)
}

func (z *Serializer) nameTable(symbol string, t *LabelTable) {
	z.host.Deferred(func(w io.Writer) {
		quoted := lo.Map(t.Names(), func(name string, _ int) string {
			return strconv.Quote(name)
		})
		fmt.Fprintf(w, "static const char *%s[%d] = { %s };\n", symbol, t.Len(), strings.Join(quoted, ", "))
	})
}
