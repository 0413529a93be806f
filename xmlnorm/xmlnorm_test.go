package xmlnorm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripNamespacesRoundTrip(t *testing.T) {
	in := `<ns:Foo xmlns:ns="http://example.com"><ns:Bar>1</ns:Bar></ns:Foo>`
	got := string(StripNamespaces([]byte(in)))
	require.Equal(t, `<Foo><Bar>1</Bar></Foo>`, got)
}

func TestStripNamespacesDefaultXmlns(t *testing.T) {
	in := `<Foo xmlns="http://example.com"><Bar>1</Bar></Foo>`
	got := string(StripNamespaces([]byte(in)))
	require.Equal(t, `<Foo><Bar>1</Bar></Foo>`, got)
}

func TestParseAndValueAt(t *testing.T) {
	body := []byte(`<ns:Root xmlns:ns="http://example.com"><ns:Status>GREEN</ns:Status></ns:Root>`)
	root, err := Parse(body)
	require.NoError(t, err)
	require.Equal(t, "Root", root.Tag)
	require.Equal(t, "GREEN", ValueAt(root, ".//Status", ""))
}

func TestValueAtReturnsDefaultOnMissingNode(t *testing.T) {
	root, err := Parse([]byte(`<Root><A>1</A></Root>`))
	require.NoError(t, err)
	require.Equal(t, "fallback", ValueAt(root, ".//Nope", "fallback"))
}

func TestValueAtIntCastFailureReturnsDefault(t *testing.T) {
	root, err := Parse([]byte(`<Root><Count>not-a-number</Count></Root>`))
	require.NoError(t, err)
	require.Equal(t, -1, ValueAtInt(root, ".//Count", -1))
}

func TestValueAtFloat(t *testing.T) {
	root, err := Parse([]byte(`<Root><Amount>19.99</Amount></Root>`))
	require.NoError(t, err)
	require.InDelta(t, 19.99, ValueAtFloat(root, ".//Amount", 0), 0.0001)
}

func TestValueAtCompoundDescendantChildPath(t *testing.T) {
	root, err := Parse([]byte(`<Root><Item><ListPrice><Amount>19.99</Amount></ListPrice></Item></Root>`))
	require.NoError(t, err)
	require.Equal(t, "19.99", ValueAt(root, "//ListPrice/Amount", ""))
}

func TestParseMalformedXMLReturnsParseError(t *testing.T) {
	_, err := Parse([]byte(`<Root><Unclosed></Root>`))
	require.Error(t, err)
}

func TestParseEmptyBodyReturnsParseError(t *testing.T) {
	_, err := Parse([]byte(``))
	require.Error(t, err)
}
