package glyph

// Opcode identifies one instruction kind.
type Opcode uint8

const (
	OpUnknown Opcode = iota
	OpScope
	OpWrite
	OpBind
	OpLoad
	OpCall
	OpLoopBegin
	OpLoopEnd
	OpHalt
)

var glyphs = map[string]Opcode{
	"Sa":  OpScope,
	"Wo":  OpWrite,
	"Bi":  OpBind,
	"Lo":  OpLoad,
	"Ca":  OpCall,
	"Lu":  OpLoopBegin,
	"Lx":  OpLoopEnd,
	"Xul": OpHalt,
}

var opNames = [...]string{
	OpUnknown:   "unknown",
	OpScope:     "define-scope",
	OpWrite:     "write",
	OpBind:      "bind",
	OpLoad:      "load",
	OpCall:      "call",
	OpLoopBegin: "loop-begin",
	OpLoopEnd:   "loop-end",
	OpHalt:      "halt",
}

// LookupOpcode maps a glyph mnemonic to its opcode.
func LookupOpcode(glyph string) Opcode {
	return glyphs[glyph]
}

func (o Opcode) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "unknown"
}
