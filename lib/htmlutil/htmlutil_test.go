package htmlutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const apacheIndex = `<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 3.2 Final//EN">
<html>
 <head><title>Index of /download_area/CASP16/targets/pharma_ligands</title></head>
 <body>
<h1>Index of /download_area/CASP16/targets/pharma_ligands</h1>
<pre><a href="?C=N;O=D">Name</a> <a href="?C=M;O=A">Last modified</a>
<hr><a href="/download_area/CASP16/targets/">Parent Directory</a>
<a href="L1000.SMILES.tar.gz">L1000.SMILES.tar.gz</a>     2024-05-01 10:00  1.2M
<a href="L2000%20v2.SMILES.tar.gz">L2000 v2.SMILES.tar.gz</a>     2024-05-01 10:00  800K
<a href="%zz">broken escape</a>
<a name="no-href">anchor without link</a>
</pre></body></html>`

func TestGetHrefs(t *testing.T) {
	doc, err := ParseDocument([]byte(apacheIndex))
	require.NoError(t, err)

	hrefs := GetHrefs(context.Background(), doc.Find("a"))
	require.Equal(t, []string{
		"?C=N;O=D",
		"?C=M;O=A",
		"/download_area/CASP16/targets/",
		"L1000.SMILES.tar.gz",
		"L2000%20v2.SMILES.tar.gz",
	}, hrefs)
}
