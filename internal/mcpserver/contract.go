package mcpserver

// RedirectFormatContract describes how a document is marked as redirected
// and what the master redirection file looks like.
const RedirectFormatContract = `# Redirect Format Contract

A document is redirected by adding ` + "`" + `redirect_url` + "`" + ` to its YAML front matter.
The key is matched case-insensitively; the URL keeps its casing.

` + "```" + `markdown
---
title: Old article
redirect_url: /azure/new-article
---
` + "```" + `

## Master redirection file

` + "`" + `generate_redirects` + "`" + ` collects every such document below the repository root
and merges it into ` + "`" + `.openpublishing.redirection.json` + "`" + ` at the root:

` + "```" + `json
{
    "redirections": [
        {
            "source_path": "articles/old-article.md",
            "redirect_url": "/azure/new-article",
            "redirect_document_id": false
        }
    ]
}
` + "```" + `

## Rules

1. Only files ending in ` + "`" + `.md` + "`" + ` (any case) are scanned. The ` + "`" + `.git` + "`" + ` folder is skipped.
2. ` + "`" + `source_path` + "`" + ` is relative to the repository root with forward slashes.
3. An entry whose ` + "`" + `source_path` + "`" + ` is already present (case-insensitive) is kept
   unchanged, even if the document now names a different URL.
4. New entries are appended after the existing ones.
5. Every redirected document is moved out of the repository into
   ` + "`" + `<home>/Docs Authoring/Redirects/<repo>_deleted_redirects_<timestamp>` + "`" + `.
6. A manifest that is not valid JSON stops the run; nothing is written or moved.
7. Use ` + "`" + `dry_run` + "`" + ` to preview the merge without touching any file.
`
