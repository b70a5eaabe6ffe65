/*
Package cassmfa implements a database/sql driver for Apache Cassandra clusters
that authenticate connections with Azure AD (Entra ID) bearer tokens.

The driver obtains short-lived tokens via the OAuth2 client-credentials flow,
caches them across connections with proactive refresh, and presents them to the
cluster during the native protocol's SASL handshake. Query execution is not
part of this driver: unwrap the underlying gocql session for CQL access, or use
the auth packages directly with your own gocql cluster config.

# Usage

Clients should use the database/sql package in conjunction with the driver:

	import (
		"database/sql"

		_ "github.com/att/cassandra-mfa-go"
	)

	func main() {
		db, err := sql.Open("cassandra-mfa", "<dsn string>")
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
	}

# Connection via DSN (Data Source Name)

The DSN format is:

	cassandra-mfa://[host]:[port]/[datacenter]?tenantId=...&clientId=...&clientSecret=...&scope=...

Supported optional connection parameters can be specified in param=value and include:

  - sslEnabled: enables TLS towards the cluster. Default is "false"
  - caCert: path to a PEM CA bundle, required when sslEnabled is "true"
  - localDc: local datacenter name, fallback for the path segment
  - timeout: connect timeout in seconds. Default is 10

# Connection via new connector object

Use sql.OpenDB() to create a database handle via a new connector object created
with cassmfa.NewConnector():

	import (
		"database/sql"

		cassmfa "github.com/att/cassandra-mfa-go"
	)

	func main() {
		connector, err := cassmfa.NewConnector(
			cassmfa.WithContactPoint("cassandra.example.com", 9042),
			cassmfa.WithLocalDatacenter("dc1"),
			cassmfa.WithClientCredentials("<tenant-id>", "<client-id>", "<client-secret>", "api://<app-id>/.default"),
			cassmfa.WithSSL("/etc/ssl/cassandra-ca.pem"),
		)
		if err != nil {
			log.Fatal(err)
		}
		db := sql.OpenDB(connector)
		defer db.Close()
	}

The connector owns a single token cache shared by all of its connections, so a
pool opening several connections at startup performs at most one token fetch.
*/
package cassmfa
