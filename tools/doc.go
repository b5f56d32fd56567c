// Package tools provides the tool implementations shared by the course
// demos: to-do file management, product catalog search and ordering, SQL
// database access, numeric analysis, charting and time lookup. Every tool
// satisfies the langchaingo tools.Tool interface (Name/Description/Call)
// so it can be registered with the prebuilt agents.
package tools
