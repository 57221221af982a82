package mcpserver

// NoteFormatContract describes the canonical Org-roam note format that
// LLM consumers should follow when drafting source notes for the vault.
const NoteFormatContract = `# Ansuz Note Format Contract

Every Org source note indexed by Ansuz MUST follow this structure.

## Structure

` + "```" + `org
:PROPERTIES:
:ID:       550E8400-E29B-41D4-A716-446655440000
:END:
#+title: Human-readable title

Body text in Org markup.

Link to another node with [[id:TARGET-UUID][display text]].
Embed an attachment with [[attachment:filename.png]].
` + "```" + `

## Rules

1. **The file-level property drawer is mandatory.** The ` + "`" + `:PROPERTIES:` + "`" + ` /
   ` + "`" + `:END:` + "`" + ` drawer with an ` + "`" + `:ID:` + "`" + ` line identifies the file node.
2. **` + "`" + `#+title:` + "`" + ` is required** for the file node. It is the primary display
   name in search, listings and the graph.
3. **IDs are UUIDs.** Generate a fresh one via the ` + "`" + `new_note_id` + "`" + ` tool;
   never reuse an existing node's ID.
4. **Headings may carry their own ID.** A heading followed by its own
   property drawer with ` + "`" + `:ID:` + "`" + ` becomes a separate addressable node; its
   heading text is its title. Headings without an ID belong to the
   enclosing node.
5. **Links between nodes** use ` + "`" + `[[id:UUID][description]]` + "`" + `. The description
   is what readers see; the UUID is what resolves.
6. **Attachments** live outside the note file, sharded by the first two
   characters of the owning node's ID:
   ` + "`" + `attachments/<id[:2]>/<id>/<filename>` + "`" + `. Reference them in the body with
   ` + "`" + `[[attachment:filename]]` + "`" + `.
7. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `org
:PROPERTIES:
:ID:       87F4A3D2-A24C-4A96-938F-F00EF1F67EF3
:END:
#+title: Reading list

Current queue, see also [[id:5970E7AA-4DAD-4E87-9256-B1E63E4C2885][Archive]].

[[attachment:cover.jpg]]

* Finished
:PROPERTIES:
:ID:       11E4B4C0-0000-4000-8000-000000000001
:END:

Books done this year.
` + "```" + `
`
