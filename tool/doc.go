// Package tool's concrete tools, by file:
//
//   - code.go: CodeExecution ("execute_code") runs Python or R in a
//     sandbox.Sandbox and returns its output truncated to
//     sandbox.ToolVisibleTokenLimit.
//   - graph.go: AddToGraph ("add_to_graph") and RetrieveFromGraph
//     ("retrieve_from_graph") over an evigraph.Manager.
//   - brave.go, tavily.go: BraveSearch ("brave_search") and TavilySearch
//     ("tavily_search") web search, built with NewBraveSearch and
//     NewTavilySearch; each reads its API key from the environment when
//     none is passed.
//   - pubmed.go, ctgov.go, kegg.go, pubchem.go, chembl.go, opentargets.go,
//     umls.go, openfda.go: one RESTTool per biomedical database, each
//     taking {"query": "..."} and returning rendered text.
//   - knowledgebase.go: the "gene", "disease", "drug" and "variant"
//     aggregate tools, each querying one or more of the REST tools above.
//   - restclient.go: RESTTool, and FixtureTool, a fixed query-to-text
//     stand-in for any database tool in tests and offline runs.
//
// Every tool implements Tool (Name, Description, Schema, Run) and is
// invoked through a Registry:
//
//	reg := tool.NewRegistry(tool.NewPubMedSearch(), tool.NewCodeExecution(sb))
//	results := reg.Dispatch(ctx, lastAssistant) // one RoleTool message per tool call
package tool
