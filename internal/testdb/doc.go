// Package testdb prepares isolated PostgreSQL databases for tests.
//
// A test run is split across worker slots. Before any test executes, the
// provisioner drops and recreates one database per slot (test_db_1 ..
// test_db_N) and applies the schema migrations to each. Every test process
// then binds to exactly one slot, either the one named by TEST_WORKER_ID or
// one leased at runtime, so concurrent test packages never share rows.
//
// Typical use from a TestMain:
//
//	func TestMain(m *testing.M) {
//	    session, err := testdb.Open(context.Background(), zap.NewNop())
//	    if err != nil {
//	        // skip or fail
//	    }
//	    code := m.Run()
//	    _ = session.Close(context.Background())
//	    os.Exit(code)
//	}
//
// Identifiers interpolated into statements here (database and table names,
// test prefixes) come from the test harness itself and are only validated
// against an identifier whitelist. Do not route user input through them.
package testdb
