package cloji

import (
	"fmt"
	"strconv"
	"strings"
)

type NodeType int

const (
	NodeRoot NodeType = iota
	NodeSexpr
	NodeString
	NodeNumber
	NodeKey
	NodeIdent
	NodeKeyword
	NodeArray
	NodeObject
	NodeRest
	NodeJs // wraps a host value for reinjection into the tree
)

var nodeTypeNames = [...]string{
	NodeRoot:    "root",
	NodeSexpr:   "sexpression",
	NodeString:  "string",
	NodeNumber:  "number",
	NodeKey:     "key",
	NodeIdent:   "identifier",
	NodeKeyword: "keyword",
	NodeArray:   "array",
	NodeObject:  "object",
	NodeRest:    "rest",
	NodeJs:      "js",
}

func (t NodeType) String() string {
	if t >= 0 && int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return "NodeType(" + strconv.Itoa(int(t)) + ")"
}

// Node is a syntax-tree unit. Leaves carry their token in Value, composites
// carry their items in Children. Nodes are never mutated after construction.
type Node struct {
	Type     NodeType
	Value    string
	Children []*Node
	Host     any // NodeJs only
	Line     int
}

// IsComposite reports whether the node holds children rather than a token.
func (n *Node) IsComposite() bool {
	switch n.Type {
	case NodeRoot, NodeSexpr, NodeArray, NodeObject:
		return true
	}
	return false
}

func jsNode(v any, line int) *Node {
	return &Node{Type: NodeJs, Host: v, Line: line}
}

func (n *Node) String() string {
	switch n.Type {
	case NodeString:
		return strconv.Quote(n.Value)
	case NodeKey:
		return ":" + n.Value
	case NodeRest:
		return "&" + n.Value
	case NodeNumber, NodeIdent, NodeKeyword:
		return n.Value
	case NodeJs:
		return fmt.Sprintf("<js %s>", Inspect(n.Host))
	case NodeRoot, NodeSexpr, NodeArray, NodeObject:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = c.String()
		}
		body := strings.Join(parts, " ")
		switch n.Type {
		case NodeSexpr:
			return "(" + body + ")"
		case NodeArray:
			return "[" + body + "]"
		case NodeObject:
			return "{" + body + "}"
		}
		return body
	default:
		return "<unknown>"
	}
}

// nodeIdent names a node for diagnostics: the token of a leaf, or the first
// token found depth-first inside a composite.
func nodeIdent(n *Node) string {
	if n == nil {
		return ""
	}
	if !n.IsComposite() {
		if n.Type == NodeJs {
			return ""
		}
		return n.Value
	}
	for _, c := range n.Children {
		if name := nodeIdent(c); name != "" {
			return name
		}
	}
	return ""
}
