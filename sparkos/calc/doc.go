// Package calc implements the SparkCalc arithmetic engine: a left-to-right accumulator driven by
// key tokens (digits, decimal point, operators, equals, clear, clear entry).
//
// Transitions are pure functions over State. Engine wraps them with the bounded history log and is
// what the hosts (the calc task and cmd/calc-mcp) drive. There is no operator precedence: 2+3*4
// evaluates as (2+3)*4.
package calc
