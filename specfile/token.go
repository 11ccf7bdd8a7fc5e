package specfile

// tokenKind enumerates every lexeme category the specification-file scanner
// recognizes. Unlike the grammar this tool generates, this vocabulary is
// fixed and hand-declared - it belongs to the tool itself, not to any
// grammar a user writes.
type tokenKind int

const (
	tokenKindInvalid tokenKind = iota
	tokenKindEOF

	tokenKindID             // identifier, e.g. expr, l_paren
	tokenKindInt            // integer literal, e.g. 16
	tokenKindRegexLiteral   // (...)
	tokenKindStringLiteral  // "..."
	tokenKindActionBlock    // !{ ... !}
	tokenKindPreambleBlock  // %{ ... %}
	tokenKindPredicateBlock // ?( ... ?)

	tokenKindColon     // :
	tokenKindSemicolon // ;
	tokenKindOr        // |
	tokenKindHash      // #
	tokenKindPctPct    // %%

	tokenKindDirTarget       // %target
	tokenKindDirAttr         // %attr
	tokenKindDirToken        // %token
	tokenKindDirSkip         // %skip
	tokenKindDirFragment     // %fragment
	tokenKindDirLeft         // %left
	tokenKindDirRight        // %right
	tokenKindDirNonAssoc     // %nonassoc
	tokenKindDirPrec         // %prec
	tokenKindDirError        // %error
	tokenKindDirInject       // %inject
	tokenKindDirName         // %name
	tokenKindDirReduceReduce // %reduce_reduce
	tokenKindDirShiftReduce  // %shift_reduce
	tokenKindDirRecover      // #recover
)

var tokenKindNames = map[tokenKind]string{
	tokenKindInvalid:         "invalid",
	tokenKindEOF:             "eof",
	tokenKindID:              "identifier",
	tokenKindInt:             "integer",
	tokenKindRegexLiteral:    "regex literal",
	tokenKindStringLiteral:   "string literal",
	tokenKindActionBlock:     "action block",
	tokenKindPreambleBlock:   "preamble block",
	tokenKindPredicateBlock:  "predicate block",
	tokenKindColon:           "':'",
	tokenKindSemicolon:       "';'",
	tokenKindOr:              "'|'",
	tokenKindHash:            "'#'",
	tokenKindPctPct:          "%%",
	tokenKindDirTarget:       "%target",
	tokenKindDirAttr:         "%attr",
	tokenKindDirToken:        "%token",
	tokenKindDirSkip:         "%skip",
	tokenKindDirFragment:     "%fragment",
	tokenKindDirLeft:         "%left",
	tokenKindDirRight:        "%right",
	tokenKindDirNonAssoc:     "%nonassoc",
	tokenKindDirPrec:         "%prec",
	tokenKindDirError:        "%error",
	tokenKindDirInject:       "%inject",
	tokenKindDirName:         "%name",
	tokenKindDirReduceReduce: "%reduce_reduce",
	tokenKindDirShiftReduce:  "%shift_reduce",
	tokenKindDirRecover:      "#recover",
}

func (k tokenKind) String() string {
	if n, ok := tokenKindNames[k]; ok {
		return n
	}
	return "unknown"
}

var directiveKeywords = map[string]tokenKind{
	"%target":         tokenKindDirTarget,
	"%attr":            tokenKindDirAttr,
	"%token":          tokenKindDirToken,
	"%skip":           tokenKindDirSkip,
	"%fragment":       tokenKindDirFragment,
	"%left":           tokenKindDirLeft,
	"%right":          tokenKindDirRight,
	"%nonassoc":       tokenKindDirNonAssoc,
	"%prec":           tokenKindDirPrec,
	"%error":          tokenKindDirError,
	"%inject":         tokenKindDirInject,
	"%name":           tokenKindDirName,
	"%reduce_reduce":  tokenKindDirReduceReduce,
	"%shift_reduce":   tokenKindDirShiftReduce,
}

type token struct {
	kind   tokenKind
	text   string
	row    int
	col    int
}
