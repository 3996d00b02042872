/*
Package assetcache builds optimized CSS and JavaScript artifacts from development
sources and rebuilds them only when their inputs change.

# Overview

A logical target (for example "js/app.min.js") is backed by a physical artifact
on disk. Each request resolves the target's membership, compares it with what
was recorded when the artifact was last built, and either returns the existing
artifact or regenerates it. No database is involved: the state lives beside the
output files.

# Basic Usage

Creating a cache:

	cache, err := assetcache.Open()
	if err != nil {
	    log.Fatalf("Failed to open cache: %v", err)
	}

Minifying one file (the output defaults to js/app.min.js):

	res, err := cache.Minify(ctx, assetcache.MinifyRequest{
	    Source:  "js/app.js",
	    Version: "1.8",
	})
	fmt.Println(res.URL()) // js/app.min.js?v=1.8

Merging a directory, with some files first and some left out:

	res, err := cache.Merge(ctx, assetcache.MergeRequest{
	    Output:   "js/packed.min.js",
	    Exclude:  []string{"js/autogrow.js"},
	    Priority: []string{"//ajax.googleapis.com/ajax/libs/jquery/1.9.1/jquery.min.js", "js/bootstrap.js"},
	})

Passing Files instead switches to selective mode: the list is the complete,
ordered membership and the directory is not scanned.

# Staleness

An artifact is rebuilt when it is missing, when the number of members changed,
when a member is not in the recorded membership, or when a local member was
modified after the recorded generation time. Remote members are never compared
by time. Modification times are normalized to UTC epoch seconds, and the
artifact's own modification time is set to its generation time after writing.

# Hashed Names

With WithHashedNames(true), every rebuild writes a new physical file named
<stem>.<hash><ext> next to the target and records it in a JSON sidecar:

	js/
	├── packed.min.3c1f9ab07e5d2c44.js
	└── .assetcache/
	    └── [hash of "js/packed.min.js"].json

Previous physical files are left in place. Sweep removes them on request.

# Transport Wrapper

With WithWrapper, artifacts get an extra ".http" extension and start with a
header block (content type, far-future caching, last modified). Handler serves
such files and compresses them for clients that accept gzip.

# Error Handling

Problems with a single member never fail a request. Unreadable files contribute
nothing, failed remote fetches are skipped, and failed transforms fall back to
the untransformed content; each is reported in Result.Diagnostics and logged. Only
an unwritable destination (ErrDestinationUnwritable) or an invalid request
(ValidationError) fails the call.
*/
package assetcache
