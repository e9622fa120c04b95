/*
Package glyph implements the instruction engine that runs shard handlers.

Programs are line oriented. Every non-blank line of the form

	[<opcode> <args...>]

is one instruction; lines starting with "#" or "//" are comments and any other
line is ignored.

# Opcodes

	Sa name      open a function scope; instructions up to "[Sa]" become its body
	Wo literal   push a literal: "text", 'text', true, false, null, 42, 1.5, [..], {..}
	Bi name      pop the top of the stack into a variable
	Lo name      push a variable (null when unbound); dotted names walk into objects
	Ca op args   call a built-in, a user function, or a registered native function
	Lu name      enter a loop context
	Lx name      leave a loop context
	Xul          halt

# Calls

	Ca get a.b        pop an object, push the property at the path
	Ca each fn        pop an array, run fn per element with "item"/"index" bound
	Ca decompress     pop, decode through Capabilities, push
	Ca normalize      pop, normalize through Capabilities, push
	Ca register       pop a definition, register it through Capabilities, push the result
	Ca remember key   pop into the shard state bag
	Ca recall key     push from the shard state bag
	Ca "text"         push the literal

Any other call name runs a user function of that name, then a native function from
the Registry, and finally degrades to pushing {"operation": name, "executed": true}.

Execution is forgiving: unknown opcodes and malformed literals are logged and
skipped. Execute returns the top of the stack, or the variables when the stack
is empty.
*/
package glyph
