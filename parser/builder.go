package parser

import (
	"slices"
	"strconv"
	"strings"

	"github.com/sergev/scad/lang"
)

// param is a module or function parameter with an optional default.
type param struct {
	name string
	def  *lang.Value
}

type callHead struct {
	tok  Token
	args []lang.Value
}

// NewGrammarFor builds the grammar of the modeling language. Keywords
// such as "for" are recognised through the TokenSpec keywords.
func NewGrammarFor(spec *TokenSpec) (*Grammar, error) {
	g := NewGrammar("program", spec)
	g.Terminal("call", func(tok Token) bool {
		return tok.Kind == TokenActionCall && modifierOf(tok) == ""
	})
	g.Terminal("operatorCall", func(tok Token) bool {
		m := modifierOf(tok)
		return m == "*" || m == "%"
	})
	b := &builder{}
	b.statements(g)
	b.definitions(g)
	b.actions(g)
	b.expressions(g)
	if err := g.Compile(); err != nil {
		return nil, err
	}
	return g, nil
}

type builder struct{}

func (b *builder) statements(g *Grammar) {
	g.Rule("program", "statements", func(a []interface{}) interface{} {
		root := &RootNode{nodeBase: newBase(Location{})}
		root.children = a[0].([]Node)
		return root
	})

	g.Rule("statements", "statement", func(a []interface{}) interface{} {
		return appendStatement(nil, a[0])
	})
	g.Rule("statements", "statements statement", func(a []interface{}) interface{} {
		return appendStatement(a[0].([]Node), a[1])
	})

	g.Rule("statement", "identifier assign expr eos", func(a []interface{}) interface{} {
		tok := a[0].(Token)
		return &VariableNode{nodeBase: newBase(tok.Location()), Name: tok.Text, Value: a[2].(lang.Value)}
	})
	g.Rule("statement", "comment", func(a []interface{}) interface{} {
		tok := a[0].(Token)
		return &CommentNode{nodeBase: newBase(tok.Location()), Text: strings.TrimSpace(tok.Value)}
	})
	g.Rule("statement", "mlComment", func(a []interface{}) interface{} {
		tok := a[0].(Token)
		return &CommentNode{nodeBase: newBase(tok.Location()), Text: tok.Value, Multiline: true}
	})
	g.Rule("statement", "include", b.include)
	g.Rule("statement", "include eos", b.include)
	g.Rule("statement", "use", b.use)
	g.Rule("statement", "use eos", b.use)
	g.Rule("statement", "moduleDef", nil)
	g.Rule("statement", "functionDef", nil)
	g.Rule("statement", "forLoop", nil)
	g.Rule("statement", "action", nil)
	g.Rule("statement", "identifier seperator action", func(a []interface{}) interface{} {
		act := a[2].(*ActionNode)
		act.SetLabel(a[0].(Token).Text)
		return act
	})
	g.Rule("statement", "eos", func(a []interface{}) interface{} {
		return nil
	})

	g.Rule("block", "lblock rblock", func(a []interface{}) interface{} {
		return []Node(nil)
	})
	g.Rule("block", "lblock statements rblock", func(a []interface{}) interface{} {
		return a[1]
	})
}

func (b *builder) include(a []interface{}) interface{} {
	tok := a[0].(Token)
	return &IncludeNode{nodeBase: newBase(tok.Location()), File: tok.Value}
}

func (b *builder) use(a []interface{}) interface{} {
	tok := a[0].(Token)
	return &UseNode{IncludeNode{nodeBase: newBase(tok.Location()), File: tok.Value}}
}

func (b *builder) definitions(g *Grammar) {
	module := func(a []interface{}, params []param, body interface{}) interface{} {
		tok := a[0].(Token)
		n := &ModuleNode{nodeBase: newBase(tok.Location()), Name: tok.Value}
		n.Params, n.Defaults = splitParams(params)
		n.children = body.([]Node)
		return n
	}
	g.Rule("moduleDef", "moduleDefinition rparent block", func(a []interface{}) interface{} {
		return module(a, nil, a[2])
	})
	g.Rule("moduleDef", "moduleDefinition params rparent block", func(a []interface{}) interface{} {
		return module(a, a[1].([]param), a[3])
	})

	function := func(a []interface{}, params []param, expr interface{}) interface{} {
		tok := a[0].(Token)
		n := &FunctionNode{nodeBase: newBase(tok.Location()), Name: tok.Value, Expression: expr.(lang.Value)}
		n.Params, n.Defaults = splitParams(params)
		return n
	}
	g.Rule("functionDef", "functionDefinition rparent assign expr eos", func(a []interface{}) interface{} {
		return function(a, nil, a[3])
	})
	g.Rule("functionDef", "functionDefinition params rparent assign expr eos", func(a []interface{}) interface{} {
		return function(a, a[1].([]param), a[4])
	})

	g.Rule("params", "param", func(a []interface{}) interface{} {
		return []param{a[0].(param)}
	})
	g.Rule("params", "params comma param", func(a []interface{}) interface{} {
		return append(slices.Clip(a[0].([]param)), a[2].(param))
	})
	g.Rule("param", "identifier", func(a []interface{}) interface{} {
		return param{name: a[0].(Token).Text}
	})
	g.Rule("param", "identifier assign expr", func(a []interface{}) interface{} {
		v := a[2].(lang.Value)
		return param{name: a[0].(Token).Text, def: &v}
	})

	// for (i = [0:3]) { ... } and for (i = [0:3]) child();
	forLoop := func(tok Token, assigns []Assignment, body []Node) interface{} {
		n := &ForLoopNode{nodeBase: newBase(tok.Location()), Params: assigns}
		n.children = body
		return n
	}
	g.Rule("forLoop", "@for( loopParams rparent block", func(a []interface{}) interface{} {
		return forLoop(a[0].(Token), a[1].([]Assignment), a[3].([]Node))
	})
	g.Rule("forLoop", "@for( loopParams rparent child", func(a []interface{}) interface{} {
		return forLoop(a[0].(Token), a[1].([]Assignment), []Node{a[3].(Node)})
	})
	g.Rule("forLoop", "@for lparent loopParams rparent block", func(a []interface{}) interface{} {
		return forLoop(a[0].(Token), a[2].([]Assignment), a[4].([]Node))
	})
	g.Rule("forLoop", "@for lparent loopParams rparent child", func(a []interface{}) interface{} {
		return forLoop(a[0].(Token), a[2].([]Assignment), []Node{a[4].(Node)})
	})
	g.Rule("loopParams", "loopParam", func(a []interface{}) interface{} {
		return []Assignment{a[0].(Assignment)}
	})
	g.Rule("loopParams", "loopParams comma loopParam", func(a []interface{}) interface{} {
		return append(slices.Clip(a[0].([]Assignment)), a[2].(Assignment))
	})
	g.Rule("loopParam", "identifier assign expr", func(a []interface{}) interface{} {
		return Assignment{Name: a[0].(Token).Text, Value: a[2].(lang.Value)}
	})
}

func (b *builder) actions(g *Grammar) {
	g.Rule("callHead", "actionCall rparent", func(a []interface{}) interface{} {
		return callHead{tok: a[0].(Token)}
	})
	g.Rule("callHead", "actionCall args rparent", func(a []interface{}) interface{} {
		return callHead{tok: a[0].(Token), args: a[1].([]lang.Value)}
	})

	action := func(head callHead, body []Node) *ActionNode {
		n := &ActionNode{
			nodeBase: newBase(head.tok.Location()),
			Name:     head.tok.Value,
			Modifier: modifierOf(head.tok),
			Params:   head.args,
		}
		n.children = body
		return n
	}
	g.Rule("action", "callHead eos", func(a []interface{}) interface{} {
		return action(a[0].(callHead), nil)
	})
	g.Rule("action", "callHead block", func(a []interface{}) interface{} {
		return action(a[0].(callHead), a[1].([]Node))
	})
	g.Rule("action", "callHead child", func(a []interface{}) interface{} {
		return action(a[0].(callHead), []Node{a[1].(Node)})
	})
	g.Rule("child", "forLoop", nil)
	g.Rule("child", "action", nil)

	g.Rule("args", "arg", func(a []interface{}) interface{} {
		return []lang.Value{a[0].(lang.Value)}
	})
	g.Rule("args", "args comma arg", func(a []interface{}) interface{} {
		return append(slices.Clip(a[0].([]lang.Value)), a[2].(lang.Value))
	})
	g.Rule("arg", "expr", nil)
	g.Rule("arg", "identifier assign expr", func(a []interface{}) interface{} {
		name := lang.ReferenceValue(a[0].(Token).Text)
		return lang.ExpressionValue(name, "=", a[2].(lang.Value))
	})
}

func (b *builder) expressions(g *Grammar) {
	binary := func(a []interface{}) interface{} {
		return lang.ExpressionValue(a[0].(lang.Value), a[1].(Token).Text, a[2].(lang.Value))
	}
	g.Rule("expr", "expr operator3 sum", binary)
	g.Rule("expr", "sum", nil)
	g.Rule("sum", "sum operator2 product", binary)
	g.Rule("sum", "product", nil)
	g.Rule("product", "product operator1 unary", binary)
	g.Rule("product", "unary", nil)

	// "a*sin(x)" lexes the operator as the modifier of a call.
	operatorCall := func(a []interface{}, args interface{}) interface{} {
		tok := a[1].(Token)
		var vals []lang.Value
		if args != nil {
			vals = args.([]lang.Value)
		}
		return lang.ExpressionValue(a[0].(lang.Value), modifierOf(tok), lang.CallValue(tok.Value, vals))
	}
	g.Rule("product", "product operatorCall rparent", func(a []interface{}) interface{} {
		return operatorCall(a, nil)
	})
	g.Rule("product", "product operatorCall args rparent", func(a []interface{}) interface{} {
		return operatorCall(a, a[2])
	})
	g.Rule("unary", "operator2:- atom", func(a []interface{}) interface{} {
		return negate(a[1].(lang.Value))
	})
	g.Rule("unary", "atom", nil)

	g.Rule("atom", "float", func(a []interface{}) interface{} {
		// Out of range literals saturate to +Inf or underflow to zero.
		f, _ := strconv.ParseFloat(a[0].(Token).Text, 64)
		return lang.NumberValue(f)
	})
	g.Rule("atom", "string", func(a []interface{}) interface{} {
		return lang.StringValue(a[0].(Token).Value)
	})
	g.Rule("atom", "bool", func(a []interface{}) interface{} {
		return lang.BoolValue(a[0].(Token).Text == "true")
	})
	g.Rule("atom", "identifier", func(a []interface{}) interface{} {
		return lang.ReferenceValue(a[0].(Token).Text)
	})
	g.Rule("atom", "lparent expr rparent", func(a []interface{}) interface{} {
		return a[1]
	})
	g.Rule("atom", "call rparent", func(a []interface{}) interface{} {
		return lang.CallValue(a[0].(Token).Value, nil)
	})
	g.Rule("atom", "call args rparent", func(a []interface{}) interface{} {
		return lang.CallValue(a[0].(Token).Value, a[1].([]lang.Value))
	})
	g.Rule("atom", "lvect rvect", func(a []interface{}) interface{} {
		return lang.VectorValue(nil)
	})
	g.Rule("atom", "lvect elements rvect", func(a []interface{}) interface{} {
		return lang.VectorValue(a[1].([]lang.Value))
	})
	g.Rule("atom", "lvect expr seperator expr rvect", func(a []interface{}) interface{} {
		return lang.RangeValue(a[1].(lang.Value), a[3].(lang.Value))
	})
	g.Rule("atom", "lvect expr seperator expr seperator expr rvect", func(a []interface{}) interface{} {
		return lang.SteppedRangeValue(a[1].(lang.Value), a[3].(lang.Value), a[5].(lang.Value))
	})
	g.Rule("elements", "expr", func(a []interface{}) interface{} {
		return []lang.Value{a[0].(lang.Value)}
	})
	g.Rule("elements", "elements comma expr", func(a []interface{}) interface{} {
		return append(slices.Clip(a[0].([]lang.Value)), a[2].(lang.Value))
	})
}

// negate applies a leading minus. Numbers and parenthesized expressions
// carry the sign themselves; other atoms, and anything already negative,
// are wrapped in a unary expression first.
func negate(v lang.Value) lang.Value {
	switch {
	case v.Negative:
		v = lang.UnaryValue(v)
	case v.Type == lang.TypeNumber, v.Type == lang.TypeExpression:
	default:
		v = lang.UnaryValue(v)
	}
	v.SetNegative(true)
	return v
}

func appendStatement(list []Node, stmt interface{}) []Node {
	n, ok := stmt.(Node)
	if !ok || n == nil {
		if list == nil {
			return []Node{}
		}
		return list
	}
	return append(slices.Clip(list), n)
}

func splitParams(params []param) ([]string, map[string]lang.Value) {
	if len(params) == 0 {
		return nil, nil
	}
	names := make([]string, len(params))
	var defaults map[string]lang.Value
	for i, p := range params {
		names[i] = p.name
		if p.def != nil {
			if defaults == nil {
				defaults = make(map[string]lang.Value)
			}
			defaults[p.name] = *p.def
		}
	}
	return names, defaults
}
