package hir

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"hashql/internal/types"
)

// DumpOptions configures HIR dumping.
type DumpOptions struct {
	Multiline bool
	Color     bool
	ShowIDs   bool            // suffix every node with @<HirID>
	Types     *types.Interner // resolves type ids in assertions and inputs; optional
}

// Printer renders HIR as text.
type Printer struct {
	w      io.Writer
	ctx    *Context
	opts   DumpOptions
	buf    strings.Builder
	indent int
	names  map[VarID]string

	keyword  *color.Color
	variable *color.Color
	literal  *color.Color
}

// NewPrinter creates a new HIR printer.
func NewPrinter(w io.Writer, ctx *Context, opts DumpOptions) *Printer {
	p := &Printer{
		w:        w,
		ctx:      ctx,
		opts:     opts,
		names:    make(map[VarID]string),
		keyword:  color.New(color.FgMagenta, color.Bold),
		variable: color.New(color.FgCyan),
		literal:  color.New(color.FgYellow),
	}
	if opts.Color {
		p.keyword.EnableColor()
		p.variable.EnableColor()
		p.literal.EnableColor()
	} else {
		p.keyword.DisableColor()
		p.variable.DisableColor()
		p.literal.DisableColor()
	}
	return p
}

// Dump writes node to w.
func Dump(w io.Writer, ctx *Context, node Node, opts DumpOptions) error {
	return NewPrinter(w, ctx, opts).PrintNode(node)
}

// Sprint renders node on a single line without color.
func Sprint(ctx *Context, node Node) string {
	var sb strings.Builder
	if err := Dump(&sb, ctx, node, DumpOptions{}); err != nil {
		panic(err) // strings.Builder never fails
	}
	return sb.String()
}

// PrintNode prints a complete tree followed by a newline in multiline mode.
func (p *Printer) PrintNode(node Node) error {
	p.buf.Reset()
	p.node(node)
	if p.opts.Multiline {
		p.buf.WriteByte('\n')
	}
	_, err := io.WriteString(p.w, p.buf.String())
	return err
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(&p.buf, format, args...)
}

func (p *Printer) kw(s string) {
	p.buf.WriteString(p.keyword.Sprint(s))
}

func (p *Printer) newline() {
	if !p.opts.Multiline {
		p.buf.WriteByte(' ')
		return
	}
	p.buf.WriteByte('\n')
	p.buf.WriteString(strings.Repeat("  ", p.indent))
}

func (p *Printer) binderName(binder Binder) string {
	name := p.ctx.SymbolName(binder.Name)
	if name == "" {
		name = "%" + strconv.FormatUint(uint64(binder.ID), 10)
	}
	p.names[binder.ID] = name
	return name
}

func (p *Printer) typeName(id types.TypeID) string {
	if p.opts.Types == nil {
		return "T#" + strconv.FormatUint(uint64(id), 10)
	}
	return p.opts.Types.Format(id)
}

func (p *Printer) nodeList(nodes Interned[Node]) {
	for i, node := range nodes.All() {
		if i > 0 {
			p.buf.WriteString(", ")
		}
		p.node(node)
	}
}

func (p *Printer) node(node Node) {
	if !node.IsValid() {
		p.buf.WriteString("<invalid>")
		return
	}
	switch kind := node.Kind().(type) {
	case Data:
		p.data(kind)
	case Variable:
		p.variableRef(kind)
	case Let:
		p.let(kind)
	case Operation:
		p.operation(kind)
	case Access:
		p.access(kind)
	case Call:
		p.node(kind.Function)
		p.buf.WriteByte('(')
		for i, argument := range kind.Arguments.All() {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.node(argument.Value)
		}
		p.buf.WriteByte(')')
	case Branch:
		if ifExpr, ok := kind.Kind.(If); ok {
			p.ifExpr(ifExpr)
		}
	case Closure:
		p.closure(kind)
	case Thunk:
		p.kw("#thunk")
		p.buf.WriteByte('(')
		p.node(kind.Body)
		p.buf.WriteByte(')')
	case Graph:
		p.graph(kind)
	}
	if p.opts.ShowIDs {
		p.printf("@%d", node.ID())
	}
}

func (p *Printer) data(data Data) {
	switch kind := data.Kind.(type) {
	case Primitive:
		text := p.ctx.SymbolName(kind.Value)
		if kind.Kind == PrimitiveString {
			text = strconv.Quote(text)
		}
		p.buf.WriteString(p.literal.Sprint(text))
	case Tuple:
		p.buf.WriteByte('(')
		p.nodeList(kind.Fields)
		if kind.Fields.Len() == 1 {
			p.buf.WriteByte(',')
		}
		p.buf.WriteByte(')')
	case Struct:
		p.buf.WriteByte('(')
		if kind.Fields.IsEmpty() {
			p.buf.WriteByte(':')
		}
		for i, field := range kind.Fields.All() {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.printf("%s: ", p.ctx.SymbolName(field.Name.Value))
			p.node(field.Value)
		}
		p.buf.WriteByte(')')
	case List:
		p.buf.WriteByte('[')
		p.nodeList(kind.Elements)
		p.buf.WriteByte(']')
	case Dict:
		p.buf.WriteByte('{')
		for i, field := range kind.Fields.All() {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.node(field.Key)
			p.buf.WriteString(": ")
			p.node(field.Value)
		}
		p.buf.WriteByte('}')
	}
}

func (p *Printer) typeArguments(arguments Interned[types.TypeID]) {
	if arguments.IsEmpty() {
		return
	}
	p.buf.WriteByte('<')
	for i, argument := range arguments.All() {
		if i > 0 {
			p.buf.WriteString(", ")
		}
		p.buf.WriteString(p.typeName(argument))
	}
	p.buf.WriteByte('>')
}

func (p *Printer) variableRef(variable Variable) {
	switch kind := variable.Kind.(type) {
	case LocalVariable:
		name, ok := p.names[kind.ID]
		if !ok {
			name = "%" + strconv.FormatUint(uint64(kind.ID), 10)
		}
		p.buf.WriteString(p.variable.Sprint(name))
		p.typeArguments(kind.Arguments)
	case QualifiedVariable:
		for _, ident := range kind.Path.All() {
			p.buf.WriteString("::")
			p.buf.WriteString(p.ctx.SymbolName(ident.Value))
		}
		p.typeArguments(kind.Arguments)
	}
}

func (p *Printer) let(let Let) {
	p.kw("let")
	p.indent++
	for i, binding := range let.Bindings.All() {
		if i > 0 {
			p.buf.WriteByte(',')
		}
		p.newline()
		p.printf("%s = ", p.variable.Sprint(p.binderName(binding.Binder)))
		p.node(binding.Value)
	}
	p.indent--
	p.newline()
	p.kw("in")
	p.newline()
	p.node(let.Body)
}

func (p *Printer) operation(operation Operation) {
	switch kind := operation.Kind.(type) {
	case TypeOperation:
		switch op := kind.Kind.(type) {
		case TypeAssertion:
			if op.Force {
				p.kw("#as!")
			} else {
				p.kw("#as")
			}
			p.buf.WriteByte('(')
			p.node(op.Value)
			p.printf(", %s)", p.typeName(op.Type))
		case TypeConstructor:
			p.kw("#ctor")
			p.printf("(%s)", p.ctx.SymbolName(op.Name))
		}
	case BinaryOperation:
		p.buf.WriteByte('(')
		p.node(kind.Left)
		p.printf(" %s ", kind.Op)
		p.node(kind.Right)
		p.buf.WriteByte(')')
	case UnaryOperation:
		p.buf.WriteString(kind.Op.String())
		p.node(kind.Expr)
	case Input:
		p.kw("#input")
		p.printf("(%s: %s", p.ctx.SymbolName(kind.Name.Value), p.typeName(kind.Type))
		if kind.Default.IsValid() {
			p.buf.WriteString(", default: ")
			p.node(kind.Default)
		}
		p.buf.WriteByte(')')
	}
}

func (p *Printer) access(access Access) {
	switch kind := access.Kind.(type) {
	case FieldAccess:
		p.node(kind.Expr)
		p.printf(".%s", p.ctx.SymbolName(kind.Field.Value))
	case IndexAccess:
		p.node(kind.Expr)
		p.buf.WriteByte('[')
		p.node(kind.Index)
		p.buf.WriteByte(']')
	}
}

func (p *Printer) ifExpr(ifExpr If) {
	p.kw("if")
	p.buf.WriteByte(' ')
	p.node(ifExpr.Test)
	p.buf.WriteByte(' ')
	p.kw("then")
	p.indent++
	p.newline()
	p.node(ifExpr.Then)
	p.indent--
	p.newline()
	p.kw("else")
	p.indent++
	p.newline()
	p.node(ifExpr.Else)
	p.indent--
}

func (p *Printer) closure(closure Closure) {
	p.kw("fn")
	p.buf.WriteByte('(')
	for i, param := range closure.Signature.Params.All() {
		if i > 0 {
			p.buf.WriteString(", ")
		}
		p.buf.WriteString(p.variable.Sprint(p.binderName(param.Binder)))
	}
	p.buf.WriteString(") ->")
	p.indent++
	p.newline()
	p.node(closure.Body)
	p.indent--
}

func (p *Printer) graph(graph Graph) {
	read, ok := graph.Kind.(GraphRead)
	if !ok {
		return
	}
	p.kw("#graph.read.entities")
	p.buf.WriteByte('(')
	p.node(read.Head.Axis)
	p.buf.WriteByte(')')
	for _, step := range read.Body.All() {
		p.buf.WriteString(" |> ")
		p.kw("filter")
		p.buf.WriteByte('(')
		p.node(step.Filter)
		p.buf.WriteByte(')')
	}
	p.buf.WriteString(" |> ")
	p.kw("collect")
}
