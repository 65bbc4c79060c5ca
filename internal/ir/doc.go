// # Description
//
// Package ir provides the typed, graph-structured program representation that the
// slicer and the comparator operate on.
//
// ## Program Representation
//
// A Module owns Procedures and Globals together with a DebugInfo side table.
// A Procedure is an ordered list of Blocks; the first block is the entry.
// Every Block ends with exactly one terminator Operation, and its successor edges
// are the terminator's targets. Predecessors are derived from the terminators of
// the other blocks in the procedure.
//
// Operations produce typed results and use ordered operands. An operand is a
// constant, a global, a parameter, a procedure or the result of another
// operation. Phi operations tag every operand with the predecessor block it
// flows in from.
//
// ## Package Functionality
//
//  1. Construction through Module, Procedure and Builder.
//  2. Canonicalization (UnifyReturns) and well-formedness checks (Verify).
//  3. CFG queries: reachability, dominators, back edges.
//  4. Textual (Fprint) and Graphviz (WriteDot) renderings.
package ir
