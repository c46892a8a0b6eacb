// Package mcp implements the Model Context Protocol (MCP) server for the
// document search engine.
//
// The server exposes nine tools to MCP clients:
//   - index_file: Extract, chunk, and embed a stored file
//   - ask_file_question: Hybrid semantic + keyword search over indexed files
//   - search_files: List accessible files by name substring and type
//   - read_file_content: Read a file's text content
//   - rename_file: Rename a file, preserving its extension
//   - delete_file: Delete a file, its blob, and its index entries
//   - share_file: Replace a file's shared-users list
//   - get_storage_stats: Owned file count and total size
//   - cleanup_orphans: Remove index entries whose file is gone
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server reads MCP protocol messages from standard input and writes
// responses to standard output.
//
// # Identity
//
// Every tool takes a user_id and user_email pair naming the caller. The
// services behind the tools enforce the owner-or-shared access rule on
// each file touched; a caller who is neither the owner nor in the file's
// shared-users list gets an access-denied error.
//
// # Usage
//
// The server is constructed over already-wired services and serves stdio
// until the client disconnects:
//
//	srv := mcp.NewServer(mcp.Deps{
//	    Ingest:   pipeline,
//	    Searcher: search,
//	    Files:    fileSvc,
//	    Chunks:   chunks,
//	})
//	if err := srv.Serve(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Tool: ask_file_question
//
// Search indexed content with a natural-language question:
//
//	Request:
//	{
//	  "name": "ask_file_question",
//	  "arguments": {
//	    "question": "what were the q3 revenue numbers",
//	    "user_id": "u123",
//	    "user_email": "user@example.com",
//	    "top_k": 5
//	  }
//	}
//
//	Response:
//	{
//	  "results": [
//	    {
//	      "rank": 1,
//	      "score": 0.87,
//	      "file_id": "f456",
//	      "file_name": "q3-report.pdf",
//	      "chunk_index": 2,
//	      "content": "Q3 revenue grew 14% to ..."
//	    }
//	  ],
//	  "total_chunks": 42,
//	  "cache_hit": false,
//	  "duration_ms": 118
//	}
//
// # Error Handling
//
// Tool failures are returned as JSON-RPC errors. Service sentinels map to
// stable codes: validation failures to -32602, access denials to -32001,
// missing files to -32002, missing backend configuration to -32003,
// upstream throttling to -32004, and other upstream failures to -32005.
package mcp
