package integration

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gleansync/ns-glean-sync/internal/netsuite"
	"github.com/gleansync/ns-glean-sync/test-integration/onboarding/helpers"
)

const gleanToken = "glean-token"

var _ = Describe("Onboarding workflow", Label("onboarding"), func() {
	var (
		tempDir      string
		fakeGlean    *helpers.FakeGlean
		fakeNetSuite *helpers.FakeNetSuite
		server       *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("onboarding-test-")

		fakeGlean = helpers.NewFakeGlean(gleanToken)
		fakeNetSuite = helpers.NewFakeNetSuite().
			WithEmployees("ada@acme.test", "grace@acme.test", "linus@acme.test").
			WithPermission("ada@acme.test", "Invoice", "1").
			WithRecords("custinvc", 3).
			WithRecords("item", 2).
			WithRecords("vendor", 1)

		configFile := helpers.WriteConfigYAML(tempDir, fakeGlean.URL(), fakeNetSuite.URL())
		server = helpers.NewServerTestHelper(ctx, configFile)
		Expect(server.StartServer()).To(Succeed())
		server.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		Expect(server.StopServer()).To(Succeed())
		fakeGlean.Close()
		fakeNetSuite.Close()
		cleanupTempDir(tempDir)
	})

	// startRun submits valid credentials and returns the new session id
	startRun := func() string {
		resp := server.Post("/api/auth", "", helpers.ValidCredentials(gleanToken))
		Expect(resp.StatusCode).To(Equal(http.StatusOK), "body: %v", resp.Body)
		Expect(resp.Body["success"]).To(BeTrue())
		Expect(resp.Body["id"]).NotTo(BeEmpty())
		Expect(resp.SessionID).NotTo(BeEmpty())
		Expect(resp.Body["sessionId"]).To(Equal(resp.SessionID))
		return resp.SessionID
	}

	Context("happy path", func() {
		It("runs every stage in order and completes", func() {
			session := startRun()

			By("indexing users")
			resp := server.Post("/api/index_users", session, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK), "body: %v", resp.Body)
			Expect(resp.Body["users_indexed"]).To(BeNumerically("==", 3))

			userPages := fakeGlean.UserPages()
			Expect(userPages).To(HaveLen(2))
			Expect(userPages[0].IsFirstPage).To(BeTrue())
			Expect(userPages[0].ForceRestartUpload).To(BeTrue())
			Expect(userPages[1].IsLastPage).To(BeTrue())
			Expect(userPages[1].UploadID).To(Equal(userPages[0].UploadID))

			By("fetching records across paginated SuiteQL results")
			resp = server.Post("/api/fetch_ns_bulk_data", session, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK), "body: %v", resp.Body)
			counts, ok := resp.Body["record_counts"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(counts).To(HaveLen(len(netsuite.ObjectTypes)))
			Expect(counts["custinvc"]).To(BeNumerically("==", 3))
			Expect(counts["item"]).To(BeNumerically("==", 2))
			Expect(counts["vendor"]).To(BeNumerically("==", 1))
			Expect(counts["salesord"]).To(BeNumerically("==", 0))

			By("checking the documents are buffered")
			resp = server.Get("/api/status", session)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Body["currentStage"]).To(Equal("BulkIndexing"))
			Expect(resp.Body["documentsBuffered"]).To(BeNumerically("==", 6))

			By("bulk indexing documents")
			resp = server.Post("/api/bulk_doc_index", session, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK), "body: %v", resp.Body)
			Expect(resp.Body["documents_indexed"]).To(BeNumerically("==", 6))
			Expect(fakeGlean.DocumentPages()).To(HaveLen(3))

			resp = server.Get("/api/status", session)
			Expect(resp.Body["currentStage"]).To(Equal("Completed"))
			Expect(resp.Body["documentsBuffered"]).To(BeNumerically("==", 0))

			By("rejecting further stages")
			resp = server.Post("/api/bulk_doc_index", session, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
			Expect(resp.Body["kind"]).To(Equal("sequence"))
		})

		It("keeps concurrent sessions independent", func() {
			first := startRun()
			second := startRun()
			Expect(first).NotTo(Equal(second))

			resp := server.Post("/api/index_users", first, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			Expect(server.Get("/api/status", first).Body["currentStage"]).To(Equal("FetchingRecords"))
			Expect(server.Get("/api/status", second).Body["currentStage"]).To(Equal("IndexingUsers"))
		})
	})

	Context("ordering", func() {
		It("requires a session before any stage", func() {
			resp := server.Post("/api/index_users", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))

			resp = server.Post("/api/index_users", "no-such-session", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		})

		It("rejects stages out of order without changing the run", func() {
			session := startRun()

			resp := server.Post("/api/bulk_doc_index", session, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
			Expect(resp.Body["error"]).To(Equal("cannot run BulkIndexing while the workflow expects IndexingUsers"))

			resp = server.Post("/api/auth", session, helpers.ValidCredentials(gleanToken))
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
			Expect(resp.Body["error"]).To(Equal("credentials were already submitted for this run"))

			status := server.Get("/api/status", session)
			Expect(status.Body["currentStage"]).To(Equal("IndexingUsers"))
			Expect(status.Body).NotTo(HaveKey("lastError"))
		})

		It("discards a session", func() {
			session := startRun()

			resp := server.Delete("/api/session", session)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp = server.Get("/api/status", session)
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		})
	})

	Context("validation", func() {
		It("rejects incomplete credentials and stays at credential collection", func() {
			creds := helpers.ValidCredentials(gleanToken)
			delete(creds, "tokenSecret")
			creds["consumerKey"] = "   "

			resp := server.Post("/api/auth", "", creds)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(resp.Body["kind"]).To(Equal("validation"))
			Expect(resp.Body["fields"]).To(ConsistOf("consumerKey", "tokenSecret"))
			Expect(resp.SessionID).NotTo(BeEmpty())

			status := server.Get("/api/status", resp.SessionID)
			Expect(status.Body["currentStage"]).To(Equal("Failed"))
			Expect(status.Body["failedStage"]).To(Equal("CollectingCredentials"))

			By("accepting corrected credentials in the same session")
			resp = server.Post("/api/auth", resp.SessionID, helpers.ValidCredentials(gleanToken))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Context("remote failures", func() {
		It("reports a rejected user upload and allows a retry", func() {
			session := startRun()
			fakeGlean.SetToken("rotated-token")

			resp := server.Post("/api/index_users", session, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(resp.Body["error"]).To(Equal("User indexing failed."))
			Expect(resp.Body["details"]).NotTo(BeEmpty())

			status := server.Get("/api/status", session)
			Expect(status.Body["currentStage"]).To(Equal("Failed"))
			Expect(status.Body["failedStage"]).To(Equal("IndexingUsers"))

			fakeGlean.SetToken(gleanToken)
			resp = server.Post("/api/index_users", session, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Body["users_indexed"]).To(BeNumerically("==", 3))
		})

		It("fails the fetch when one object type query fails", func() {
			session := startRun()
			Expect(server.Post("/api/index_users", session, nil).StatusCode).To(Equal(http.StatusOK))

			fakeNetSuite.FailObject("item")
			resp := server.Post("/api/fetch_ns_bulk_data", session, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(resp.Body["error"]).To(Equal("Bulk Fetch NS Data failed."))

			status := server.Get("/api/status", session)
			Expect(status.Body["failedStage"]).To(Equal("FetchingRecords"))
			Expect(status.Body["documentsBuffered"]).To(BeNumerically("==", 0))

			fakeNetSuite.FailObject("")
			resp = server.Post("/api/fetch_ns_bulk_data", session, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("keeps a partially indexed run at bulk indexing until a retry succeeds", func() {
			session := startRun()
			Expect(server.Post("/api/index_users", session, nil).StatusCode).To(Equal(http.StatusOK))
			Expect(server.Post("/api/fetch_ns_bulk_data", session, nil).StatusCode).To(Equal(http.StatusOK))

			fakeGlean.FailDocumentPagesFrom(1)
			resp := server.Post("/api/bulk_doc_index", session, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(resp.Body["error"]).To(Equal("Bulk document indexing failed."))
			Expect(resp.Body["partialSuccessCount"]).To(BeNumerically("==", 1))
			Expect(resp.Body["documents_indexed"]).To(BeNumerically("==", 2))

			status := server.Get("/api/status", session)
			Expect(status.Body["currentStage"]).To(Equal("BulkIndexing"))
			Expect(status.Body["lastError"]).NotTo(BeNil())
			Expect(status.Body["documentsBuffered"]).To(BeNumerically("==", 6))

			fakeGlean.FailDocumentPagesFrom(-1)
			resp = server.Post("/api/bulk_doc_index", session, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Body["documents_indexed"]).To(BeNumerically("==", 6))
			Expect(server.Get("/api/status", session).Body["currentStage"]).To(Equal("Completed"))
		})
	})
})
