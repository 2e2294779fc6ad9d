package expr

// Node is any parsed expression.
type Node interface {
	Col() int
}

type (
	// Literal holds a constant value (int64, float64, string, bool, nil).
	Literal struct {
		At    int
		Value any
	}

	Ident struct {
		At   int
		Name string
	}

	ListLit struct {
		At    int
		Elems []Node
	}

	// Comprehension is [Elem for Var in Iter if Cond]; Cond may be nil.
	Comprehension struct {
		At   int
		Elem Node
		Var  string
		Iter Node
		Cond Node
	}

	Unary struct {
		At int
		Op TokenType
		X  Node
	}

	Binary struct {
		At   int
		Op   TokenType
		L, R Node
	}

	// Coalesce yields L unless it fails or is nil, then R.
	Coalesce struct {
		At   int
		L, R Node
	}

	Ternary struct {
		At               int
		Cond, Then, Else Node
	}

	Call struct {
		At   int
		Fn   Node
		Args []Node
	}

	Index struct {
		At    int
		X     Node
		Index Node
	}

	LambdaLit struct {
		At     int
		Params []string
		Body   Node
	}
)

func (n *Literal) Col() int       { return n.At }
func (n *Ident) Col() int         { return n.At }
func (n *ListLit) Col() int       { return n.At }
func (n *Comprehension) Col() int { return n.At }
func (n *Unary) Col() int         { return n.At }
func (n *Binary) Col() int        { return n.At }
func (n *Coalesce) Col() int      { return n.At }
func (n *Ternary) Col() int       { return n.At }
func (n *Call) Col() int          { return n.At }
func (n *Index) Col() int         { return n.At }
func (n *LambdaLit) Col() int     { return n.At }
