package ppc

import (
	"fmt"
	"strconv"
	"strings"
)

// The template table maps "<mnemonic>_<arity>" to "<8-hex-digit base
// opcode><field codes>". The table below is the raw configuration data; the
// two expansion passes in opcodeTable derive the record-bit siblings and
// the conditional-branch families from it. Everything here is data, not
// logic: the field-code characters are interpreted by (*Assembler).interpret.
var rawTemplates = map[string]string{
	// Integer arithmetic.
	"add_3":   "7c000214RRR.",
	"addc_3":  "7c000014RRR.",
	"adde_3":  "7c000114RRR.",
	"addi_3":  "38000000RR0I",
	"addis_3": "3c000000RR0I",
	"addic_3": "30000000RRI",
	"subf_3":  "7c000050RRR.",
	"subfc_3": "7c000010RRR.",
	"neg_2":   "7c0000d0RR.",
	"mulli_3": "1c000000RRI",
	"mullw_3": "7c0001d6RRR.",
	"mulhw_3": "7c000096RRR.",
	"divw_3":  "7c0003d6RRR.",
	"divwu_3": "7c000396RRR.",
	"li_2":    "38000000RsI",
	"lis_2":   "3c000000RsI",

	// Logic. The template places the source field first, so the rA/rS
	// syntax order needs the field-exchange code.
	"and_3":    "7c000038RRzR.",
	"andc_3":   "7c000078RRzR.",
	"or_3":     "7c000378RRzR.",
	"orc_3":    "7c000338RRzR.",
	"xor_3":    "7c000278RRzR.",
	"nand_3":   "7c0003b8RRzR.",
	"nor_3":    "7c0000f8RRzR.",
	"eqv_3":    "7c000238RRzR.",
	"mr_2":     "7c000378RRzS",
	"not_2":    "7c0000f8RRzS",
	"extsb_2":  "7c000774RRz.",
	"extsh_2":  "7c000734RRz.",
	"cntlzw_2": "7c000034RRz.",
	"ori_3":    "60000000RRzi",
	"oris_3":   "64000000RRzi",
	"xori_3":   "68000000RRzi",
	"xoris_3":  "6c000000RRzi",
	"andi_3":   "70000000RRzi",
	"andis_3":  "74000000RRzi",

	// Shifts and rotates.
	"slw_3":    "7c000030RRzR.",
	"srw_3":    "7c000430RRzR.",
	"sraw_3":   "7c000630RRzR.",
	"srawi_3":  "7c000670RRzu.",
	"rlwinm_5": "54000000RRzuuu.",
	"rlwimi_5": "50000000RRzuuu.",

	// Compares.
	"cmpw_3":   "7c000000CtRR",
	"cmpwi_3":  "2c000000CtRI",
	"cmplw_3":  "7c000040CtRR",
	"cmplwi_3": "28000000CtRi",
	"cmpd_3":   "7c200000CtRR",
	"cmpdi_3":  "2c200000CtRI",

	// Condition-register logic.
	"crand_3":  "4c000202ccc",
	"cror_3":   "4c000382ccc",
	"crxor_3":  "4c000182ccc",
	"crnand_3": "4c0001c2ccc",
	"crnor_3":  "4c000042ccc",
	"creqv_3":  "4c000242ccc",

	// Loads and stores.
	"lwz_2":  "80000000RD",
	"lwzu_2": "84000000RD",
	"lbz_2":  "88000000RD",
	"lbzu_2": "8c000000RD",
	"lhz_2":  "a0000000RD",
	"lha_2":  "a8000000RD",
	"stw_2":  "90000000RD",
	"stwu_2": "94000000RD",
	"stb_2":  "98000000RD",
	"sth_2":  "b0000000RD",
	"lmw_2":  "b8000000RD",
	"stmw_2": "bc000000RD",
	"lwp_2":  "80000000PD@",
	"stwp_2": "90000000PD@",

	// String/cache ops. The lswi template predates the table's lowercase
	// convention and one code in dcbz is a preserved no-op; see DESIGN.md.
	"lswi_3":  "7C0004AARRu",
	"stswi_3": "7c0005aaRRu",
	"dcbz_2":  "7c0007ecsRRy",
	"dcbf_2":  "7c0000acsRR",
	"icbi_2":  "7c0007acsRR",

	// Floating point.
	"lfs_2":  "c0000000FD",
	"lfd_2":  "c8000000FD",
	"stfs_2": "d0000000FD",
	"stfd_2": "d8000000FD",
	"fadd_3": "fc00002aFFF.",
	"fsub_3": "fc000028FFF.",
	"fmul_3": "fc000032FFsF.",
	"fdiv_3": "fc000024FFF.",
	"fmr_2":  "fc000090FsF.",
	"fneg_2": "fc000050FsF.",
	"fabs_2": "fc000210FsF.",

	// Vector and vector-scalar.
	"lvx_3":     "7c0000ceVRR",
	"stvx_3":    "7c0001ceVRR",
	"vand_3":    "10000404VVV",
	"vor_3":     "10000484VVV",
	"vxor_3":    "100004c4VVV",
	"vaddubm_3": "10000000VVV",
	"vadduwm_3": "10000080VVV",
	"lxvd2x_3":  "7c000698XRRh",
	"stxvd2x_3": "7c000798XRRh",

	// Special-purpose registers. The generic forms take the register
	// operand first so the split field lands below the register field.
	"mtspr_2": "7c0003a6Ro",
	"mfspr_2": "7c0002a6Ro",
	"mtlr_1":  "7c0803a6R",
	"mflr_1":  "7c0802a6R",
	"mtctr_1": "7c0903a6R",
	"mfctr_1": "7c0902a6R",
	"mfcr_1":  "7c000026R",

	// Unconditional branches and calls.
	"b_1":     "48000000J",
	"bl_1":    "48000001J",
	"ba_1":    "48000002J",
	"bla_1":   "48000003J",
	"bc_3":    "40000000uuj",
	"blr_0":   "4e800020",
	"blrl_0":  "4e800021",
	"bctr_0":  "4e800420",
	"bctrl_0": "4e800421",
	"call_1":  "48000001E",

	// Label-address materialization; the immediate half is filled in by
	// the relocation action at patch time.
	"lag_2": "3c000000RsL",
	"lae_2": "3c000000RsE",
	"lal_2": "3c000000Rsl",

	// Synchronization.
	"sync_0":  "7c0004ac",
	"isync_0": "4c00012c",
	"eieio_0": "7c0006ac",
	"nop_0":   "60000000",
}

const (
	// recordSentinel marks templates that have a record-form sibling;
	// recordBit is the Rc bit set in the sibling's base opcode and
	// recordSuffix the mnemonic suffix of the sibling.
	recordSentinel = '.'
	recordBit      = uint32(1)
	recordSuffix   = "_r"
)

// branchCond is one named condition of the conditional-branch family:
// its bit within the condition register field and whether the branch
// fires when the bit is clear.
type branchCond struct {
	name   string
	bit    uint32
	negate bool
}

var branchConds = []branchCond{
	{"lt", 0, false}, {"gt", 1, false}, {"eq", 2, false}, {"so", 3, false},
	{"ge", 0, true}, {"le", 1, true}, {"ne", 2, true}, {"ns", 3, true},
}

// Base opcode skeletons the conditional-branch variants are merged into.
const (
	bcSkeleton    = uint32(0x40000000)
	bclrSkeleton  = uint32(0x4c000020)
	bcctrSkeleton = uint32(0x4c000420)
)

// opcodeTable builds the immutable derived table: the raw templates with
// record sentinels stripped, their record-form siblings, and the
// conditional-branch families. Run once per Assembler construction.
func opcodeTable() map[string]string {
	table := make(map[string]string, 2*len(rawTemplates)+12*len(branchConds))
	expandRecordVariants(rawTemplates, table)
	expandBranchVariants(table)
	return table
}

// expandRecordVariants copies raw into out, synthesizing for every
// sentinel-marked template a sibling mnemonic whose base opcode carries the
// record bit.
func expandRecordVariants(raw, out map[string]string) {
	for key, tmpl := range raw {
		if !strings.HasSuffix(tmpl, string(recordSentinel)) {
			out[key] = tmpl
			continue
		}
		base := tmpl[:len(tmpl)-1]
		out[key] = base

		op, err := strconv.ParseUint(base[:8], 16, 32)
		if err != nil {
			panic(fmt.Sprintf("bad base opcode in template %q", tmpl))
		}
		i := strings.LastIndexByte(key, '_')
		name, arity := key[:i], key[i+1:]
		out[name+recordSuffix+"_"+arity] = fmt.Sprintf("%08x%s", uint32(op)|recordBit, base[8:])
	}
}

// expandBranchVariants synthesizes twelve mnemonics per named condition:
// the four relative/absolute × link forms, their four predicted siblings,
// and the four to-link-register/to-count-register forms.
func expandBranchVariants(out map[string]string) {
	for _, c := range branchConds {
		bo := uint32(12) // branch if condition bit set
		if c.negate {
			bo = 4 // branch if condition bit clear
		}
		merged := bo<<21 | c.bit<<16

		labelForms := []struct {
			suffix string
			bits   uint32
		}{
			{"", 0},   // relative
			{"a", 2},  // absolute
			{"l", 1},  // relative with link
			{"la", 3}, // absolute with link
		}
		for _, f := range labelForms {
			word := bcSkeleton | merged | f.bits
			out["b"+c.name+f.suffix+"_1"] = fmt.Sprintf("%08xj", word)
			// Predicted sibling: the prediction hint is the low bit of the
			// BO field.
			out["b"+c.name+f.suffix+"p_1"] = fmt.Sprintf("%08xj", word|1<<21)
		}

		regForms := []struct {
			suffix   string
			skeleton uint32
		}{
			{"lr", bclrSkeleton},
			{"lrl", bclrSkeleton | 1},
			{"ctr", bcctrSkeleton},
			{"ctrl", bcctrSkeleton | 1},
		}
		for _, f := range regForms {
			out["b"+c.name+f.suffix+"_0"] = fmt.Sprintf("%08x", f.skeleton|merged)
		}
	}
}
