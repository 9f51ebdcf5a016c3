// Package graph is the state-machine graph executor underlying every agent
// topology in this module: the BFS/DFS literature researcher, the staged
// SLR/DocGen pipeline, and the supplemental ReAct and plan-then-code
// agents are all a StateGraph compiled to a StateRunnable and invoked or
// streamed once per turn.
package graph
