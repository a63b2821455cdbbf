// Package ir defines the annotated node tree that configuration layers
// are parsed into, merged over, and evaluated from.
//
// A tree is made of *Node values tagged with a Kind. Composed kinds
// (dict, list, tuple, append) carry ordered children; deferred kinds
// (call, bind, eval, fstr, include, import, xref, prev, required) carry
// the payload needed to resolve them in a later phase. Trees may share
// subtrees (a DAG), which traversal and rewriting preserve by node
// identity. A node must never be its own transitive child.
package ir
