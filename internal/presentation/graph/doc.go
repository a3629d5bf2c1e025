// Package graph renders flow graphs as Mermaid flowcharts and Graphviz DOT.
package graph
