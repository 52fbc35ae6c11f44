// Package bibtex parses BibTeX databases: it tokenizes the source, assembles
// preamble, string, comment and entry records, expands @string macros and
// '#' concatenations, resolves crossref inheritance and decomposes name
// lists into von/Last/First/Jr parts.
//
// A Database is built in one scan by Parse or Open and is read-only
// afterwards. Records can also be streamed lazily with a Reader.
package bibtex

// BNF
// Database     ::= (Junk '@' Record)*
// Record       ::= Entry
//               |  Comment
//               |  String
//               |  Preamble
// Comment      ::= "comment" [^\n]* \n
//               |  "comment" Open Balanced Close
// String       ::= "string" Open Field (',' Field)* [','] Close
// Preamble     ::= "preamble" Open Value Close
// Entry        ::= Type Open Key [',' Field (',' Field)* [',']] Close
// Open, Close  ::= '{' '}' | '(' ')'     -- the opener fixes the closer
// Type         ::= Name
// Key          ::= Name | Number
// Field        ::= Name '=' Value
// Value        ::= Piece ('#' Piece)*
// Piece        ::= Number
//               |  Name                        -- macro reference
//               |  '"' ([^"{}] | '{' Balanced '}')* '"'
//               |  '{' Balanced '}'
// Name         ::= [^\s"#(),={}@]+
