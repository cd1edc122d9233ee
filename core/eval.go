package cloji

// Evaluate computes the value of node in scope s.
func Evaluate(s *Scope, node *Node) (any, error) {
	if node == nil {
		return Undefined, nil
	}
	switch node.Type {
	case NodeJs:
		return node.Host, nil
	case NodeString:
		return node.Value, nil
	case NodeNumber:
		return parseNumeric(node.Value), nil
	case NodeKey, NodeRest:
		return node, nil
	case NodeKeyword:
		switch node.Value {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "nil":
			return nil, nil
		case "void":
			return Undefined, nil
		}
	case NodeArray:
		return structArray(s, node.Children)
	case NodeObject:
		return structObject(s, node.Children)
	case NodeIdent:
		return s.Get(node.Value)
	case NodeSexpr:
		return evalSexpr(s, node)
	case NodeRoot:
		return executeBlock(s, node.Children)
	}
	return nil, &InvalidSyntaxError{Node: node}
}

func evalSexpr(s *Scope, node *Node) (any, error) {
	if len(node.Children) == 0 {
		return nil, withFrame(&InvalidSyntaxError{Node: node, Msg: "empty call ()"}, node)
	}
	head, args := node.Children[0], node.Children[1:]

	var fn any
	var err error
	if head.Type == NodeIdent {
		fn, err = s.Get(head.Value)
	} else {
		fn, err = Evaluate(s, head)
	}
	if err != nil {
		return nil, withFrame(err, node)
	}
	if !isCallable(fn) {
		return nil, withFrame(&NotCallableError{Name: nodeIdent(head)}, node)
	}

	var res any
	if f, ok := fn.(Func); ok {
		res, err = f.Call(s, args)
	} else {
		var vals []any
		if vals, err = structArray(s, args); err == nil {
			res, err = callHost(fn, vals)
		}
	}
	if err != nil {
		return nil, withFrame(err, node)
	}
	return res, nil
}

// executeBlock evaluates nodes in order and returns the last value.
func executeBlock(s *Scope, nodes []*Node) (any, error) {
	var result any = Undefined
	for _, n := range nodes {
		v, err := Evaluate(s, n)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

// evalList evaluates each node without spread handling.
func evalList(s *Scope, nodes []*Node) ([]any, error) {
	vals := make([]any, len(nodes))
	for i, n := range nodes {
		v, err := Evaluate(s, n)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
